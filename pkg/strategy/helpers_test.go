package strategy

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newTestRepo(t *testing.T) *repo.Repo {
	t.Helper()

	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeBlob(t *testing.T, r *repo.Repo, content string) object.Hash {
	t.Helper()

	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(content)})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	return h
}

func writeTreeFromFiles(t *testing.T, r *repo.Repo, files map[string]string) object.Hash {
	t.Helper()

	ix := index.New()
	for p, content := range files {
		ix.Add(&index.Entry{Path: p, Blob: writeBlob(t, r, content), Mode: object.TreeModeFile})
	}
	h, err := r.WriteIndexAsTree(ix)
	if err != nil {
		t.Fatalf("WriteIndexAsTree: %v", err)
	}
	return h
}

func writeCommit(t *testing.T, r *repo.Repo, tree object.Hash, parents ...object.Hash) object.Hash {
	t.Helper()

	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    "test-author",
		Timestamp: time.Now().Unix(),
		Message:   "test commit",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	return h
}

// testContext builds a merge context over a fresh index, capturing
// reporter output.
func testContext(t *testing.T, r *repo.Repo) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	ctx := &Context{
		Repo:     r,
		Index:    index.New(),
		Reporter: NewReporter(out, errBuf),
	}
	return ctx, out, errBuf
}

// stageEntry adds an unmerged entry for path at the given stage.
func stageEntry(ctx *Context, path string, stage int, blob object.Hash, mode string) {
	ctx.Index.Add(&index.Entry{Path: path, Blob: blob, Mode: mode, Stage: stage})
}

// stagesFromInput seeds the index with the stage entries implied by in.
func stagesFromInput(ctx *Context, in *PathInput) {
	if in.Orig != nil {
		stageEntry(ctx, in.Path, index.StageAncestor, in.Orig.Blob, in.Orig.Mode)
	}
	if in.Ours != nil {
		stageEntry(ctx, in.Path, index.StageOurs, in.Ours.Blob, in.Ours.Mode)
	}
	if in.Theirs != nil {
		stageEntry(ctx, in.Path, index.StageTheirs, in.Theirs.Blob, in.Theirs.Mode)
	}
}

func writeWorktree(t *testing.T, r *repo.Repo, path, content string) {
	t.Helper()

	abs := filepath.Join(r.RootDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readWorktree(t *testing.T, r *repo.Repo, path string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(path)))
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func ref(t *testing.T, r *repo.Repo, content, mode string) *BlobRef {
	t.Helper()
	return &BlobRef{Blob: writeBlob(t, r, content), Mode: mode}
}
