package object

import (
	"strings"
	"testing"
)

func TestMarshalTreeSortsAndRoundtrips(t *testing.T) {
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "z.txt", Mode: TreeModeFile, BlobHash: HashBytes([]byte("z"))},
		{Name: "a", IsDir: true, SubtreeHash: HashBytes([]byte("sub"))},
		{Name: "link", Mode: TreeModeSymlink, BlobHash: HashBytes([]byte("target"))},
		{Name: "mod", Mode: TreeModeGitlink, BlobHash: HashBytes([]byte("commit"))},
	}}

	data := MarshalTree(tr)
	got, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}

	if len(got.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(got.Entries))
	}
	// Sorted by name: a, link, mod, z.txt
	if got.Entries[0].Name != "a" || !got.Entries[0].IsDir {
		t.Errorf("first entry = %+v, want dir a", got.Entries[0])
	}
	if got.Entries[1].Mode != TreeModeSymlink {
		t.Errorf("link mode = %s", got.Entries[1].Mode)
	}
	if got.Entries[2].Mode != TreeModeGitlink {
		t.Errorf("mod mode = %s", got.Entries[2].Mode)
	}
}

func TestUnmarshalTreeRejectsUnknownMode(t *testing.T) {
	_, err := UnmarshalTree([]byte("f 999999 - -\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("err = %v, want unknown mode", err)
	}
}

func TestCommitSigningPayloadExcludesSignature(t *testing.T) {
	c := &CommitObj{
		TreeHash:  HashBytes([]byte("t")),
		Author:    "a",
		Timestamp: 1,
		Signature: "sig-bytes",
		Message:   "m",
	}
	payload := string(CommitSigningPayload(c))
	if strings.Contains(payload, "sig-bytes") {
		t.Error("payload contains the signature")
	}
	if !strings.Contains(payload, "tree ") {
		t.Error("payload missing tree header")
	}
}

func TestEmptyTreeIDStable(t *testing.T) {
	if EmptyTreeID() != HashObject(TypeTree, nil) {
		t.Errorf("EmptyTreeID = %s", EmptyTreeID())
	}
	if !IsHex(string(EmptyTreeID())) {
		t.Error("EmptyTreeID is not hex")
	}
}
