package strategy

import (
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// Exit codes shared by the merge drivers.
const (
	ExitClean     = 0 // merged cleanly
	ExitConflicts = 1 // conflicts remain, recorded in the index
	ExitFailed    = 2 // merge could not be attempted or structurally failed
)

// Resolve runs the two-head merge strategy: an unpack-trees pass over the
// base/head/remote trees, then a per-path content-merge pass if writing
// the result as a tree reports conflicts.
//
// bases may be empty; head and remote are commit (or tree) ids, empty when
// absent. The return value is the driver exit code.
func Resolve(r *repo.Repo, bases []object.Hash, head, remote object.Hash, rep *Reporter) int {
	lock, err := r.LockIndex()
	if err != nil {
		rep.ReportError(err)
		return ExitFailed
	}
	defer lock.Rollback()

	ix, err := r.ReadIndex()
	if err != nil {
		rep.ReportError(err)
		return ExitFailed
	}
	ix.Refresh(r.RootDir)

	var trees []object.Hash
	appendTree := func(h object.Hash) bool {
		th, err := r.TreeIDOf(h)
		if err != nil {
			rep.ReportError(err)
			return false
		}
		trees = append(trees, th)
		return true
	}

	for _, b := range bases {
		if !appendTree(b) {
			return ExitFailed
		}
	}
	if head != "" && !appendTree(head) {
		return ExitFailed
	}
	if remote != "" && !appendTree(remote) {
		return ExitFailed
	}

	opts := repo.UnpackOptions{
		Merge:      true,
		Update:     true,
		Aggressive: true,
	}
	switch n := len(trees); {
	case n == 1:
		opts.Fn = repo.OneWay
	case n == 2:
		opts.Fn = repo.TwoWay
		opts.InitialCheckout = ix.IsUnborn()
	default:
		opts.Fn = repo.ThreeWay
		opts.HeadIdx = n - 2
	}

	if err := r.UnpackTrees(trees, ix, opts); err != nil {
		rep.ReportError(err)
		return ExitFailed
	}

	rep.Printf("Trying simple merge.\n")
	if err := lock.Commit(ix); err != nil {
		rep.ReportError(err)
		return ExitFailed
	}

	if _, err := r.WriteIndexAsTree(ix); err == nil {
		return ExitClean
	}

	rep.Printf("Simple merge failed, trying Automatic merge.\n")
	lock, err = r.LockIndex()
	if err != nil {
		rep.ReportError(err)
		return ExitFailed
	}
	defer lock.Rollback()

	ctx := &Context{Repo: r, Index: ix, Reporter: rep}
	conflicts, err := MergeAll(ix, false, false, ctx.MergeOneFile, rep)
	if err != nil {
		return ExitFailed
	}

	if err := lock.Commit(ix); err != nil {
		rep.ReportError(err)
		return ExitFailed
	}

	if conflicts != 0 {
		return ExitConflicts
	}
	return ExitClean
}
