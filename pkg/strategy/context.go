package strategy

import (
	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// BlobRef names one version of a file: a blob id plus its tree mode. A nil
// *BlobRef means the file does not exist in that version.
type BlobRef struct {
	Blob object.Hash
	Mode string
}

// PathInput carries the three versions of a single path into a merge
// callback. At least one of Orig/Ours/Theirs is present.
type PathInput struct {
	Path   string
	Orig   *BlobRef // stage 1, the common ancestor
	Ours   *BlobRef // stage 2
	Theirs *BlobRef // stage 3
}

// Context is the per-invocation state a merge callback operates on. The
// index is the locked in-memory index; mutations are flushed by the
// driver when it commits the lock.
type Context struct {
	Repo     *repo.Repo
	Index    *index.Index
	Reporter *Reporter
}

// Callback decides the outcome for one unmerged path. A nil return means
// the path was resolved (or legitimately removed); a non-nil return marks
// the path as a hand-resolvable conflict.
type Callback func(in *PathInput) error

func hexOrEmpty(ref *BlobRef) string {
	if ref == nil {
		return ""
	}
	return string(ref.Blob)
}

func modeOrZero(ref *BlobRef) string {
	if ref == nil {
		return "0"
	}
	return ref.Mode
}
