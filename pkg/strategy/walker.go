package strategy

import (
	multierror "github.com/hashicorp/go-multierror"

	"github.com/odvcencio/grit/pkg/index"
)

// entryOutcome is the tagged result of dispatching one path group.
type entryOutcome struct {
	consumed  int  // entries consumed from the walk (1..3)
	conflict  bool // callback reported a hand-resolvable conflict
	conflictE error
}

// mergeEntry collects the consecutive stage entries for path starting at
// pos in the snapshot, slots them by stage, and dispatches the group to
// the callback.
func mergeEntry(entries []*index.Entry, quiet bool, pos int, path string, cb Callback, rep *Reporter) (entryOutcome, error) {
	var refs [3]*BlobRef
	found := 0

	for ; pos < len(entries); pos++ {
		e := entries[pos]
		if e.Path != path {
			break
		}
		found++
		if e.Stage >= index.StageAncestor && e.Stage <= index.StageTheirs {
			refs[e.Stage-1] = &BlobRef{Blob: e.Blob, Mode: e.Mode}
		}
	}
	if found == 0 {
		return entryOutcome{}, &NotInCacheError{Path: path}
	}

	in := &PathInput{
		Path:   path,
		Orig:   refs[0],
		Ours:   refs[1],
		Theirs: refs[2],
	}
	if err := cb(in); err != nil {
		if !quiet {
			rep.Errorf("Merge program failed")
		}
		return entryOutcome{consumed: found, conflict: true, conflictE: err}, nil
	}

	return entryOutcome{consumed: found}, nil
}

// MergeOnePath dispatches the named path to the merge callback if it is
// unmerged. A path already at stage 0 succeeds with no action. The
// returned count is 1 when the callback left a hand-resolvable conflict;
// a non-nil error is fatal for the walk.
func MergeOnePath(ix *index.Index, oneshot, quiet bool, path string, cb Callback, rep *Reporter) (int, error) {
	pos, ok := ix.Pos(path)
	if !ok {
		return 0, rep.ReportError(&NotInCacheError{Path: path})
	}

	// If it already exists in the cache as stage 0, it is already merged
	// and there is nothing to do.
	if ix.Entries[pos].Stage == index.StageMerged {
		return 0, nil
	}

	entries := snapshot(ix)
	pos, _ = posIn(entries, path)
	out, err := mergeEntry(entries, quiet, pos, path, cb, rep)
	if err != nil {
		return 0, rep.ReportError(err)
	}
	if out.conflict {
		return 1, nil
	}
	return 0, nil
}

// MergeAll walks the index in order, dispatching every unmerged path group
// to the callback. With oneshot set, conflicts are counted (and aggregated
// in the returned error); otherwise the walk aborts at the first conflict
// with a count of 1. A fatal error from dispatch setup aborts the walk.
func MergeAll(ix *index.Index, oneshot, quiet bool, cb Callback, rep *Reporter) (int, error) {
	conflicts := 0
	var agg *multierror.Error

	// The callback mutates the live index as paths resolve; walk a
	// snapshot so positions stay stable.
	entries := snapshot(ix)

	for i := 0; i < len(entries); {
		e := entries[i]
		if e.Stage == index.StageMerged {
			i++
			continue
		}

		out, err := mergeEntry(entries, quiet, i, e.Path, cb, rep)
		if err != nil {
			return 0, rep.ReportError(err)
		}
		if out.conflict {
			if !oneshot {
				return 1, nil
			}
			conflicts++
			agg = multierror.Append(agg, out.conflictE)
		}
		i += out.consumed
	}

	return conflicts, agg.ErrorOrNil()
}

func snapshot(ix *index.Index) []*index.Entry {
	return append([]*index.Entry(nil), ix.Entries...)
}

func posIn(entries []*index.Entry, path string) (int, bool) {
	for i, e := range entries {
		if e.Path == path {
			return i, true
		}
	}
	return 0, false
}
