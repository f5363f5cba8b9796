package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func blob(s string) object.Hash {
	return object.HashBytes([]byte(s))
}

func TestAddKeepsSortedByPathAndStage(t *testing.T) {
	ix := New()
	ix.Add(&Entry{Path: "b.txt", Blob: blob("b"), Mode: object.TreeModeFile, Stage: StageTheirs})
	ix.Add(&Entry{Path: "a.txt", Blob: blob("a"), Mode: object.TreeModeFile})
	ix.Add(&Entry{Path: "b.txt", Blob: blob("b1"), Mode: object.TreeModeFile, Stage: StageAncestor})

	if ix.Entries[0].Path != "a.txt" {
		t.Errorf("entries[0] = %s", ix.Entries[0].Path)
	}
	if ix.Entries[1].Path != "b.txt" || ix.Entries[1].Stage != StageAncestor {
		t.Errorf("entries[1] = %s stage %d", ix.Entries[1].Path, ix.Entries[1].Stage)
	}
	if ix.Entries[2].Stage != StageTheirs {
		t.Errorf("entries[2] stage = %d", ix.Entries[2].Stage)
	}
}

func TestAddStageZeroEvictsUnmerged(t *testing.T) {
	ix := New()
	ix.Add(&Entry{Path: "f", Blob: blob("o"), Mode: object.TreeModeFile, Stage: StageAncestor})
	ix.Add(&Entry{Path: "f", Blob: blob("u"), Mode: object.TreeModeFile, Stage: StageOurs})
	ix.Add(&Entry{Path: "f", Blob: blob("t"), Mode: object.TreeModeFile, Stage: StageTheirs})

	if !ix.HasUnmerged() {
		t.Fatal("expected unmerged entries")
	}

	ix.Add(&Entry{Path: "f", Blob: blob("m"), Mode: object.TreeModeFile})

	entries := ix.EntriesFor("f")
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Stage != StageMerged {
		t.Errorf("stage = %d, want 0", entries[0].Stage)
	}
	if ix.HasUnmerged() {
		t.Error("unmerged entries survived a stage-0 add")
	}
}

func TestAddUnmergedEvictsStageZero(t *testing.T) {
	ix := New()
	ix.Add(&Entry{Path: "f", Blob: blob("m"), Mode: object.TreeModeFile})
	ix.Add(&Entry{Path: "f", Blob: blob("u"), Mode: object.TreeModeFile, Stage: StageOurs})

	entries := ix.EntriesFor("f")
	if len(entries) != 1 || entries[0].Stage != StageOurs {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestPosBinarySearch(t *testing.T) {
	ix := New()
	for _, p := range []string{"c", "a", "b"} {
		ix.Add(&Entry{Path: p, Blob: blob(p), Mode: object.TreeModeFile})
	}

	pos, ok := ix.Pos("b")
	if !ok || pos != 1 {
		t.Errorf("Pos(b) = %d, %v", pos, ok)
	}
	if _, ok := ix.Pos("zz"); ok {
		t.Error("Pos(zz) found a missing path")
	}
}

func TestRemove(t *testing.T) {
	ix := New()
	ix.Add(&Entry{Path: "f", Blob: blob("o"), Mode: object.TreeModeFile, Stage: StageAncestor})
	ix.Add(&Entry{Path: "f", Blob: blob("u"), Mode: object.TreeModeFile, Stage: StageOurs})
	ix.Add(&Entry{Path: "g", Blob: blob("g"), Mode: object.TreeModeFile})

	if !ix.Remove("f") {
		t.Fatal("Remove(f) = false")
	}
	if ix.Remove("f") {
		t.Error("second Remove(f) = true")
	}
	if len(ix.Entries) != 1 || ix.Entries[0].Path != "g" {
		t.Errorf("entries = %+v", ix.Entries)
	}
}

func TestUnmergedPaths(t *testing.T) {
	ix := New()
	ix.Add(&Entry{Path: "a", Blob: blob("a"), Mode: object.TreeModeFile})
	ix.Add(&Entry{Path: "b", Blob: blob("b1"), Mode: object.TreeModeFile, Stage: StageOurs})
	ix.Add(&Entry{Path: "b", Blob: blob("b2"), Mode: object.TreeModeFile, Stage: StageTheirs})
	ix.Add(&Entry{Path: "c", Blob: blob("c"), Mode: object.TreeModeFile, Stage: StageAncestor})

	got := ix.UnmergedPaths()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("UnmergedPaths = %v", got)
	}
}

func TestLoadWriteRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")

	ix := New()
	ix.Add(&Entry{Path: "x/y.txt", Blob: blob("x"), Mode: object.TreeModeExecutable, ModTime: 42, Size: 7})
	if err := ix.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d", len(got.Entries))
	}
	e := got.Entries[0]
	if e.Path != "x/y.txt" || e.Mode != object.TreeModeExecutable || e.ModTime != 42 || e.Size != 7 {
		t.Errorf("entry = %+v", e)
	}
}

func TestLoadMissingGivesEmpty(t *testing.T) {
	ix, err := Load(filepath.Join(t.TempDir(), "no-such-index"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ix.IsUnborn() {
		t.Error("missing index is not unborn")
	}
}

func TestValidPath(t *testing.T) {
	good := []string{"a", "a/b.txt", "deep/ly/nested/file"}
	for _, p := range good {
		if err := ValidPath(p); err != nil {
			t.Errorf("ValidPath(%q) = %v", p, err)
		}
	}

	bad := []string{"", "/abs", "a//b", "../escape", "a/../b", ".", "a/.grit/c", "nul\x00byte"}
	for _, p := range bad {
		if err := ValidPath(p); err == nil {
			t.Errorf("ValidPath(%q) accepted", p)
		}
	}
}

func TestLockCommitWritesIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")

	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ix := New()
	ix.Add(&Entry{Path: "f", Blob: blob("f"), Mode: object.TreeModeFile})
	if err := l.Commit(ix); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if l.Held() {
		t.Error("lock still held after Commit")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Errorf("entries = %d", len(got.Entries))
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file left behind")
	}
}

func TestLockRollbackLeavesIndexUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")

	before := New()
	before.Add(&Entry{Path: "keep", Blob: blob("keep"), Mode: object.TreeModeFile})
	if err := before.Write(path); err != nil {
		t.Fatalf("seed Write: %v", err)
	}
	seeded, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}

	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	l.Rollback()
	l.Rollback() // idempotent

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if string(after) != string(seeded) {
		t.Error("rollback mutated the on-disk index")
	}
}

func TestLockReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	l1, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	l1.Rollback()

	l2, err := Acquire(path)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	l2.Rollback()
}
