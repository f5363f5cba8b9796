package index

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the index lock.
var ErrLocked = fmt.Errorf("index is locked by another process")

// Lock is a scoped exclusive lock over the on-disk index. Acquire it at
// driver entry and release it on every exit path: Commit writes the index
// and releases, Rollback releases without writing. Both are safe to call
// after the other, so Rollback can sit in a defer.
type Lock struct {
	indexPath string
	fl        *flock.Flock
	held      bool
}

// Acquire takes the exclusive index lock, failing immediately when another
// process holds it.
func Acquire(indexPath string) (*Lock, error) {
	fl := flock.New(indexPath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{indexPath: indexPath, fl: fl, held: true}, nil
}

// Commit writes ix to the locked index path and releases the lock.
func (l *Lock) Commit(ix *Index) error {
	if !l.held {
		return fmt.Errorf("commit index: lock not held")
	}
	if err := ix.Write(l.indexPath); err != nil {
		l.release()
		return err
	}
	l.release()
	return nil
}

// Rollback releases the lock without touching the on-disk index. It is a
// no-op when the lock has already been committed or rolled back.
func (l *Lock) Rollback() {
	if l.held {
		l.release()
	}
}

// Held reports whether the lock is currently held.
func (l *Lock) Held() bool { return l.held }

func (l *Lock) release() {
	l.held = false
	_ = l.fl.Unlock()
	_ = os.Remove(l.fl.Path())
}
