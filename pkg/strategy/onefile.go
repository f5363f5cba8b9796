package strategy

import (
	"fmt"
	"os"

	"github.com/odvcencio/grit/pkg/diff3"
	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
)

// MergeOneFile resolves a single unmerged path. It decides the outcome
// from which of (orig, ours, theirs) are present, runs a three-way content
// merge where both sides survive, and maintains the index and working tree
// for the path. It is the internal merge callback of the resolve and
// octopus drivers.
func (ctx *Context) MergeOneFile(in *PathInput) error {
	orig, ours, theirs := in.Orig, in.Ours, in.Theirs

	switch {
	case orig != nil &&
		((ours == nil && theirs == nil) ||
			(theirs == nil && ours != nil && ours.Blob == orig.Blob) ||
			(ours == nil && theirs != nil && theirs.Blob == orig.Blob)):
		// Deleted in both or deleted in one and unchanged in the other.
		return ctx.mergeOneFileDeleted(in)

	case orig == nil && ours != nil && theirs == nil:
		// Added in one. The other side did not add and we added, so there
		// is nothing to be done except making the path merged.
		return ctx.addCacheInfo(in.Path, ours)

	case orig == nil && ours == nil && theirs != nil:
		ctx.Reporter.Printf("Adding %s\n", in.Path)

		if ctx.Repo.WorktreeFileExists(in.Path) {
			return ctx.Reporter.ReportError(&UntrackedOverwriteError{Path: in.Path})
		}

		if err := ctx.addCacheInfo(in.Path, theirs); err != nil {
			return err
		}
		return ctx.checkoutFromIndex(in.Path)

	case orig == nil && ours != nil && theirs != nil && ours.Blob == theirs.Blob:
		// Added in both, identically (check for same permissions).
		if ours.Mode != theirs.Mode {
			return ctx.Reporter.ReportError(&PermissionConflictError{
				Path:       in.Path,
				OursMode:   ours.Mode,
				TheirsMode: theirs.Mode,
			})
		}

		ctx.Reporter.Printf("Adding %s\n", in.Path)

		if err := ctx.addCacheInfo(in.Path, ours); err != nil {
			return err
		}
		return ctx.checkoutFromIndex(in.Path)

	case ours != nil && theirs != nil:
		// Modified in both, but differently.
		return ctx.doMergeOneFile(in)

	default:
		return ctx.Reporter.ReportError(&UnhandledCaseError{
			Path:      in.Path,
			OrigHex:   hexOrEmpty(orig),
			OursHex:   hexOrEmpty(ours),
			TheirsHex: hexOrEmpty(theirs),
		})
	}
}

// mergeOneFileDeleted handles the clean-deletion cases: gone on both
// sides, or gone on one side and untouched on the other.
func (ctx *Context) mergeOneFileDeleted(in *PathInput) error {
	orig, ours, theirs := in.Orig, in.Ours, in.Theirs

	if (ours != nil && orig.Mode != ours.Mode) ||
		(theirs != nil && orig.Mode != theirs.Mode) {
		return ctx.Reporter.ReportError(&DeletedModifiedError{Path: in.Path})
	}

	if ours != nil {
		ctx.Reporter.Printf("Removing %s\n", in.Path)

		if ctx.Repo.WorktreeFileExists(in.Path) {
			if err := ctx.Repo.RemoveWorktreeFile(in.Path); err != nil {
				return ctx.Reporter.ReportError(err)
			}
		}
	}

	ctx.Index.Remove(in.Path)
	return nil
}

// doMergeOneFile runs the three-way content merge for a path present on
// both sides, writes the merged result to the working tree, and re-stages
// the path when the merge is clean.
func (ctx *Context) doMergeOneFile(in *PathInput) error {
	orig, ours, theirs := in.Orig, in.Ours, in.Theirs

	if object.IsSymlinkMode(ours.Mode) || object.IsSymlinkMode(theirs.Mode) {
		return ctx.Reporter.ReportError(&TypeConflictError{Path: in.Path, Kind: "symlink"})
	}
	if object.IsGitlinkMode(ours.Mode) || object.IsGitlinkMode(theirs.Mode) {
		return ctx.Reporter.ReportError(&TypeConflictError{Path: in.Path, Kind: "submodule"})
	}

	oursData, err := ctx.readBlob(ours)
	if err != nil {
		return ctx.Reporter.ReportError(err)
	}
	theirsData, err := ctx.readBlob(theirs)
	if err != nil {
		return ctx.Reporter.ReportError(err)
	}

	var origData []byte
	if orig != nil {
		ctx.Reporter.Printf("Auto-merging %s\n", in.Path)
		origData, err = ctx.readBlob(orig)
		if err != nil {
			return ctx.Reporter.ReportError(err)
		}
	} else {
		ctx.Reporter.Printf("Added %s in both, but differently.\n", in.Path)
	}

	result := diff3.Merge(origData, oursData, theirsData, diff3.Options{
		Labels:       [3]string{"orig", "our", "their"},
		ZealousAlnum: true,
	})

	// Create the working tree file, using "our tree" version from the
	// index, and then store the result of the merge.
	ce := ctx.Index.Stage(in.Path, index.StageOurs)
	if ce == nil {
		return ctx.Reporter.Errorf("%s: file is not present in the cache", in.Path)
	}

	if err := ctx.Repo.WriteWorktreeFile(in.Path, result.Merged, ce.Mode); err != nil {
		return ctx.Reporter.ReportError(err)
	}

	var contentErr error
	if result.Conflicts > 0 || orig == nil {
		contentErr = ctx.Reporter.ReportError(&ContentConflictError{Path: in.Path})
	}
	if ours.Mode != theirs.Mode {
		return ctx.Reporter.ReportError(&PermissionConflictError{
			Path:       in.Path,
			OrigMode:   modeOrZero(orig),
			OursMode:   ours.Mode,
			TheirsMode: theirs.Mode,
		})
	}
	if contentErr != nil {
		return contentErr
	}

	return ctx.addFileToIndex(in.Path, ce.Mode)
}

func (ctx *Context) readBlob(ref *BlobRef) ([]byte, error) {
	blob, err := ctx.Repo.Store.ReadBlob(ref.Blob)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref.Blob, err)
	}
	return blob.Data, nil
}

// addCacheInfo records a merged stage-0 entry for the path, replacing any
// unmerged stages.
func (ctx *Context) addCacheInfo(path string, ref *BlobRef) error {
	if err := index.ValidPath(path); err != nil {
		return ctx.Reporter.Errorf("Invalid path '%s'", path)
	}
	ctx.Index.Add(&index.Entry{
		Path:        path,
		Blob:        ref.Blob,
		Mode:        ref.Mode,
		AssumeValid: ctx.Repo.AssumeUnchanged,
	})
	return nil
}

// checkoutFromIndex materializes the merged stage-0 entry in the working
// tree.
func (ctx *Context) checkoutFromIndex(path string) error {
	ce := ctx.Index.Stage(path, index.StageMerged)
	if ce == nil {
		return ctx.Reporter.Errorf("%s: cannot checkout file", path)
	}
	if err := ctx.Repo.CheckoutBlob(path, ce.Blob, ce.Mode); err != nil {
		return ctx.Reporter.Errorf("%s: cannot checkout file", path)
	}
	return nil
}

// addFileToIndex hashes the working tree file at path and stages it as the
// single merged entry.
func (ctx *Context) addFileToIndex(path string, mode string) error {
	abs := ctx.Repo.WorktreeAbs(path)
	data, err := os.ReadFile(abs)
	if err != nil {
		return ctx.Reporter.Errorf("%s: cannot add to the index", path)
	}

	blobHash, err := ctx.Repo.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return ctx.Reporter.Errorf("%s: cannot add to the index", path)
	}

	e := &index.Entry{
		Path:        path,
		Blob:        blobHash,
		Mode:        mode,
		AssumeValid: ctx.Repo.AssumeUnchanged,
	}
	if info, err := os.Stat(abs); err == nil {
		e.ModTime = info.ModTime().Unix()
		e.Size = info.Size()
	}
	ctx.Index.Add(e)
	return nil
}
