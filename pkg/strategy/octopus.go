package strategy

import (
	"os"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// Octopus runs the N-head merge strategy: walk the remotes, fast-forward
// while possible, fall back to simple tree merges, and refuse to go on
// once a remote leaves hand-resolvable conflicts — only the last remote
// may do that.
func Octopus(r *repo.Repo, bases []object.Hash, head object.Hash, remotes []object.Hash, rep *Reporter) int {
	referenceCommits := []object.Hash{head}

	referenceTree, err := r.TreeIDOf(head)
	if err != nil {
		rep.ReportError(err)
		return ExitFailed
	}

	ix, err := r.ReadIndex()
	if err != nil {
		rep.ReportError(err)
		return ExitFailed
	}
	if changed, err := r.IndexHasChanges(ix, referenceTree); err != nil {
		rep.ReportError(err)
		return ExitFailed
	} else if len(changed) > 0 {
		rep.Errorf("Your local changes to the following files would be overwritten by merge:\n  %s",
			strings.Join(changed, "\n  "))
		return ExitFailed
	}

	nonFFMerge := false
	ret := ExitClean

	for _, c := range remotes {
		if ret != 0 {
			// We allow only the last one to have hand-resolvable
			// conflicts. The previous round failed and we still have a
			// head to merge.
			rep.Printf("Automated merge did not work.\n")
			rep.Printf("Should not be doing an octopus.\n")
			return ExitFailed
		}

		branchName := betterBranchName(c)
		common, err := r.MergeBasesMany(c, referenceCommits)
		if err != nil {
			rep.ReportError(err)
			return ExitFailed
		}
		if len(common) == 0 {
			rep.Errorf("Unable to find common commit with %s", branchName)
			return ExitFailed
		}

		if containsHash(common, c) {
			rep.Printf("Already up to date with %s\n", branchName)
			continue
		}

		canFF := false
		if !nonFFMerge {
			canFF = len(common) >= len(referenceCommits)
			for i := range referenceCommits {
				if !canFF {
					break
				}
				canFF = common[i] == referenceCommits[i]
			}
		}

		if !nonFFMerge && canFF {
			// The head being merged is a fast-forward. Advance the
			// reference commit to it and use its tree as the intermediate
			// result of the merge. It still counts as part of the parent
			// set.
			rep.Printf("Fast-forwarding to: %s\n", branchName)

			if err := fastForward(r, []object.Hash{head, c}, false); err != nil {
				rep.ReportError(err)
				return ExitFailed
			}

			referenceCommits = referenceCommits[:0]
			if th, err := writeTree(r); err == nil {
				referenceTree = th
			}
		} else {
			nonFFMerge = true
			rep.Printf("Trying simple merge with %s\n", branchName)

			trees := make([]object.Hash, 0, len(common)+2)
			for _, k := range common {
				trees = append(trees, k)
			}
			trees = append(trees, referenceTree, c)

			if err := fastForward(r, trees, true); err != nil {
				rep.ReportError(err)
				return ExitFailed
			}

			next, err := writeTree(r)
			if err != nil {
				rep.Printf("Simple merge did not work, trying automatic merge.\n")

				lock, lockErr := r.LockIndex()
				if lockErr != nil {
					rep.ReportError(lockErr)
					return ExitFailed
				}
				mergedIx, readErr := r.ReadIndex()
				if readErr != nil {
					lock.Rollback()
					rep.ReportError(readErr)
					return ExitFailed
				}

				ctx := &Context{Repo: r, Index: mergedIx, Reporter: rep}
				conflicts, mergeErr := MergeAll(mergedIx, false, false, ctx.MergeOneFile, rep)
				if mergeErr != nil {
					lock.Rollback()
					return ExitFailed
				}
				if conflicts != 0 {
					ret = ExitConflicts
				}
				if err := lock.Commit(mergedIx); err != nil {
					rep.ReportError(err)
					return ExitFailed
				}

				// May still fail; the next iteration catches that through
				// the last-only-conflict rule.
				next, _ = writeTree(r)
			}

			referenceTree = next
		}

		referenceCommits = append(referenceCommits, c)
	}

	return ret
}

// fastForward reconciles the given trees into the index under lock,
// updating the working tree. Tree arguments may name commits.
func fastForward(r *repo.Repo, heads []object.Hash, aggressive bool) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return err
	}
	ix.Refresh(r.RootDir)

	lock, err := r.LockIndex()
	if err != nil {
		return err
	}
	defer lock.Rollback()

	trees := make([]object.Hash, 0, len(heads))
	for _, h := range heads {
		th, err := r.TreeIDOf(h)
		if err != nil {
			return err
		}
		trees = append(trees, th)
	}

	opts := repo.UnpackOptions{
		Merge:      true,
		Update:     true,
		Aggressive: aggressive,
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
		return err
	}

	return lock.Commit(ix)
}

// writeTree converts the on-disk index into a tree, failing while
// unmerged entries remain.
func writeTree(r *repo.Repo) (object.Hash, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return "", err
	}
	return r.WriteIndexAsTree(ix)
}

// betterBranchName resolves an id to the branch name recorded by the
// caller in a GRITHEAD_<id> environment variable, falling back to the id
// itself.
func betterBranchName(h object.Hash) string {
	if name := os.Getenv("GRITHEAD_" + string(h)); name != "" {
		return name
	}
	return string(h)
}

func containsHash(haystack []object.Hash, needle object.Hash) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
