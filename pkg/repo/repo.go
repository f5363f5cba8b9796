package repo

import (
	"path/filepath"
	"sync"

	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
)

// Repo represents an opened Grit repository.
type Repo struct {
	RootDir string        // working directory root
	GritDir string        // .grit/ directory
	Store   *object.Store // content-addressed object store

	// AssumeUnchanged marks entries added during a merge as assume-valid,
	// suppressing stat refreshes for them.
	AssumeUnchanged bool

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *mergeBaseTraversalState
}

func (r *Repo) getMergeTraversalState() *mergeBaseTraversalState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newMergeBaseTraversalState()
	})
	return r.mergeTraversalState
}

// IndexPath returns the filesystem path of the index file.
func (r *Repo) IndexPath() string {
	return filepath.Join(r.GritDir, "index")
}

// ReadIndex loads the index from disk. A missing index file yields an
// empty (unborn) index.
func (r *Repo) ReadIndex() (*index.Index, error) {
	return index.Load(r.IndexPath())
}

// LockIndex acquires the exclusive index lock.
func (r *Repo) LockIndex() (*index.Lock, error) {
	return index.Acquire(r.IndexPath())
}
