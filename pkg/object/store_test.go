package object

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreWriteReadRoundtrip(t *testing.T) {
	s := NewStore(t.TempDir())

	data := []byte("hello, store\n")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != HashObject(TypeBlob, data) {
		t.Fatalf("Write returned wrong hash: %s", h)
	}

	objType, content, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("Read type = %s, want %s", objType, TypeBlob)
	}
	if !bytes.Equal(content, data) {
		t.Errorf("Read content = %q, want %q", content, data)
	}
}

func TestStoreWriteIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir())

	data := []byte("same content")
	h1, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ: %s vs %s", h1, h2)
	}
}

func TestStoreCompressesOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	// Highly repetitive content compresses well.
	data := bytes.Repeat([]byte("abcdefgh"), 4096)
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	onDisk := filepath.Join(dir, "objects", string(h[:2]), string(h[2:]))
	info, err := os.Stat(onDisk)
	if err != nil {
		t.Fatalf("stat object file: %v", err)
	}
	if info.Size() >= int64(len(data)) {
		t.Errorf("object file size %d not smaller than content %d", info.Size(), len(data))
	}

	blob, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(blob.Data, data) {
		t.Error("decompressed blob does not match original")
	}
}

func TestStoreReadWrongType(t *testing.T) {
	s := NewStore(t.TempDir())

	h, err := s.WriteBlob(&Blob{Data: []byte("x")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Error("ReadCommit of a blob succeeded, want type error")
	}
}

func TestReadEmptyTreeWithoutWrite(t *testing.T) {
	s := NewStore(t.TempDir())

	tr, err := s.ReadTree(EmptyTreeID())
	if err != nil {
		t.Fatalf("ReadTree(empty): %v", err)
	}
	if len(tr.Entries) != 0 {
		t.Errorf("empty tree has %d entries", len(tr.Entries))
	}
}

func TestCommitTreeRoundtrip(t *testing.T) {
	s := NewStore(t.TempDir())

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("file content\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	tree := &TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, BlobHash: blobHash},
		{Name: "run.sh", Mode: TreeModeExecutable, BlobHash: blobHash},
	}}
	treeHash, err := s.WriteTree(tree)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	commit := &CommitObj{
		TreeHash:  treeHash,
		Parents:   []Hash{},
		Author:    "tester",
		Timestamp: 1700000000,
		Message:   "initial",
	}
	commitHash, err := s.WriteCommit(commit)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	got, err := s.ReadCommit(commitHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if got.TreeHash != treeHash {
		t.Errorf("TreeHash = %s, want %s", got.TreeHash, treeHash)
	}
	if got.Message != "initial" {
		t.Errorf("Message = %q", got.Message)
	}

	gotTree, err := s.ReadTree(treeHash)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(gotTree.Entries) != 2 {
		t.Fatalf("tree has %d entries, want 2", len(gotTree.Entries))
	}
	if gotTree.Entries[1].Mode != TreeModeExecutable {
		t.Errorf("run.sh mode = %s, want %s", gotTree.Entries[1].Mode, TreeModeExecutable)
	}
}
