package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// WorktreeAbs returns the absolute working tree path for a repo-relative
// slash path.
func (r *Repo) WorktreeAbs(path string) string {
	return filepath.Join(r.RootDir, filepath.FromSlash(path))
}

// WorktreeFileExists reports whether path exists in the working tree.
func (r *Repo) WorktreeFileExists(path string) bool {
	_, err := os.Lstat(r.WorktreeAbs(path))
	return err == nil
}

// WriteWorktreeFile replaces the working tree file at path: unlink, then
// create with the permission bits derived from mode, write data, close.
// Symlink entries are materialized as symlinks pointing at the blob
// content.
func (r *Repo) WriteWorktreeFile(path string, data []byte, mode string) error {
	abs := r.WorktreeAbs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("write worktree %q: mkdir: %w", path, err)
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("write worktree %q: unlink: %w", path, err)
	}

	if object.IsSymlinkMode(mode) {
		if err := os.Symlink(string(data), abs); err != nil {
			return fmt.Errorf("write worktree %q: symlink: %w", path, err)
		}
		return nil
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE, filePermFromMode(mode))
	if err != nil {
		return fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write to '%s': %w", path, err)
	}
	return nil
}

// CheckoutBlob materializes the blob with the given id at path.
func (r *Repo) CheckoutBlob(path string, blobHash object.Hash, mode string) error {
	blob, err := r.Store.ReadBlob(blobHash)
	if err != nil {
		return fmt.Errorf("checkout %q: %w", path, err)
	}
	return r.WriteWorktreeFile(path, blob.Data, mode)
}

// RemoveWorktreeFile deletes path from the working tree, then prunes any
// directories the removal left empty.
func (r *Repo) RemoveWorktreeFile(path string) error {
	abs := r.WorktreeAbs(path)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove worktree %q: %w", path, err)
	}
	r.removeEmptyParents(filepath.Dir(abs))
	return nil
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		// Never remove the repo root itself.
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
