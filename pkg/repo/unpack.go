package repo

import (
	"fmt"
	"os"
	"sort"

	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
)

// UnpackFn selects the per-path reconciliation rule set.
type UnpackFn int

const (
	OneWay UnpackFn = iota + 1
	TwoWay
	ThreeWay
)

// UnpackOptions configure an UnpackTrees invocation.
type UnpackOptions struct {
	// HeadIdx is the position of the head tree in the tree list for the
	// three-way rule set; trees before it are merge bases, the tree after
	// it is the incoming remote.
	HeadIdx int

	Merge           bool
	Update          bool
	Aggressive      bool
	InitialCheckout bool
	Fn              UnpackFn
}

// UnpackTrees reconciles n trees into the index, mutating ix in place.
// Paths that resolve cleanly end up as stage-0 entries (materialized in
// the working tree when Update is set); paths that do not resolve get
// stage-1/2/3 entries and their working tree files are left alone.
//
// An error aborts the whole operation; callers roll back the index lock.
func (r *Repo) UnpackTrees(trees []object.Hash, ix *index.Index, opts UnpackOptions) error {
	if len(trees) == 0 {
		return fmt.Errorf("unpack trees: no trees")
	}

	flats := make([]map[string]TreeFileEntry, len(trees))
	for i, th := range trees {
		flat, err := r.FlattenTree(th)
		if err != nil {
			return fmt.Errorf("unpack trees: %w", err)
		}
		m := make(map[string]TreeFileEntry, len(flat))
		for _, f := range flat {
			m[f.Path] = f
		}
		flats[i] = m
	}

	seen := make(map[string]struct{})
	for _, m := range flats {
		for p := range m {
			seen[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		refs := make([]*TreeFileEntry, len(trees))
		for i := range flats {
			if f, ok := flats[i][p]; ok {
				f := f
				refs[i] = &f
			}
		}

		var err error
		switch opts.Fn {
		case OneWay:
			err = r.unpackOneWay(ix, p, refs[0], opts)
		case TwoWay:
			err = r.unpackTwoWay(ix, p, refs[0], refs[len(refs)-1], opts)
		case ThreeWay:
			err = r.unpackThreeWay(ix, p, refs, opts)
		default:
			err = fmt.Errorf("unpack trees: no merge function")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func refsEqual(a, b *TreeFileEntry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.BlobHash == b.BlobHash && a.Mode == b.Mode
}

// unpackOneWay adopts the tree's version unconditionally (checkout).
func (r *Repo) unpackOneWay(ix *index.Index, path string, want *TreeFileEntry, opts UnpackOptions) error {
	if want == nil {
		return r.dropEntry(ix, path, opts)
	}
	return r.keepEntry(ix, path, want, opts)
}

// unpackTwoWay switches from the old tree to the new tree. The index must
// match the old tree for paths the switch touches.
func (r *Repo) unpackTwoWay(ix *index.Index, path string, old, new *TreeFileEntry, opts UnpackOptions) error {
	cur := ix.Stage(path, index.StageMerged)

	switch {
	case refsEqual(old, new):
		// Untouched by the switch; the index keeps whatever it has.
		return nil
	case old == nil && new != nil:
		if cur == nil && !opts.InitialCheckout && r.WorktreeFileExists(path) {
			return fmt.Errorf("untracked working tree file '%s' would be overwritten by merge", path)
		}
		return r.keepEntry(ix, path, new, opts)
	case old != nil && new == nil:
		if cur != nil && cur.Blob != old.BlobHash {
			return fmt.Errorf("your local changes to '%s' would be overwritten by merge", path)
		}
		return r.dropEntry(ix, path, opts)
	default:
		if cur != nil && cur.Blob != old.BlobHash {
			return fmt.Errorf("your local changes to '%s' would be overwritten by merge", path)
		}
		return r.keepEntry(ix, path, new, opts)
	}
}

// unpackThreeWay applies the multi-base three-way rules. refs holds one
// slot per tree: bases up to HeadIdx, then head, then the remote.
func (r *Repo) unpackThreeWay(ix *index.Index, path string, refs []*TreeFileEntry, opts UnpackOptions) error {
	n := len(refs)
	head := refs[opts.HeadIdx]
	remote := refs[n-1]
	bases := refs[:opts.HeadIdx]

	anyBaseEquals := func(side *TreeFileEntry) bool {
		for _, b := range bases {
			if refsEqual(b, side) {
				return true
			}
		}
		return false
	}
	anyBasePresent := func() *TreeFileEntry {
		for _, b := range bases {
			if b != nil {
				return b
			}
		}
		return nil
	}

	switch {
	case refsEqual(head, remote):
		// Same on both sides, including deleted on both.
		if head == nil {
			return r.dropEntry(ix, path, opts)
		}
		return r.keepEntry(ix, path, head, opts)

	case anyBaseEquals(remote):
		// Only our side changed relative to some base: keep head.
		if head == nil {
			return r.dropEntry(ix, path, opts)
		}
		return r.keepEntry(ix, path, head, opts)

	case anyBaseEquals(head):
		// Only their side changed relative to some base: take remote.
		if remote == nil {
			return r.dropEntry(ix, path, opts)
		}
		if head == nil && ix.Stage(path, index.StageMerged) == nil && r.WorktreeFileExists(path) {
			return fmt.Errorf("untracked working tree file '%s' would be overwritten by merge", path)
		}
		return r.keepEntry(ix, path, remote, opts)

	case opts.Aggressive && head == nil && remote == nil:
		// Deleted on both sides.
		return r.dropEntry(ix, path, opts)

	default:
		// Leave the path unmerged at stages 1/2/3.
		ix.Remove(path)
		if orig := anyBasePresent(); orig != nil {
			ix.Add(&index.Entry{Path: path, Blob: orig.BlobHash, Mode: orig.Mode, Stage: index.StageAncestor})
		}
		if head != nil {
			ix.Add(&index.Entry{Path: path, Blob: head.BlobHash, Mode: head.Mode, Stage: index.StageOurs})
		}
		if remote != nil {
			ix.Add(&index.Entry{Path: path, Blob: remote.BlobHash, Mode: remote.Mode, Stage: index.StageTheirs})
		}
		return nil
	}
}

// keepEntry records want as the merged stage-0 entry, materializing it in
// the working tree when it does not already match.
func (r *Repo) keepEntry(ix *index.Index, path string, want *TreeFileEntry, opts UnpackOptions) error {
	cur := ix.Stage(path, index.StageMerged)
	if cur != nil && cur.Blob == want.BlobHash && normalizeFileMode(cur.Mode) == want.Mode {
		// Already merged; keep stat data untouched.
		return nil
	}

	if opts.Update {
		if err := r.CheckoutBlob(path, want.BlobHash, want.Mode); err != nil {
			return err
		}
	}

	e := &index.Entry{
		Path:        path,
		Blob:        want.BlobHash,
		Mode:        want.Mode,
		AssumeValid: r.AssumeUnchanged,
	}
	if info, err := os.Stat(r.WorktreeAbs(path)); err == nil {
		e.ModTime = info.ModTime().Unix()
		e.Size = info.Size()
	}
	ix.Add(e)
	return nil
}

// dropEntry removes the path from the index and, when updating, the
// working tree.
func (r *Repo) dropEntry(ix *index.Index, path string, opts UnpackOptions) error {
	tracked := len(ix.EntriesFor(path)) > 0
	ix.Remove(path)
	if opts.Update && tracked {
		return r.RemoveWorktreeFile(path)
	}
	return nil
}
