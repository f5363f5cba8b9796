package main

import (
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/strategy"
	"github.com/spf13/cobra"
)

const mergeOneFileUsage = "grit merge-one-file <orig> <ours> <theirs> <path> <orig_mode> <ours_mode> <theirs_mode>"

// newMergeOneFileCmd exposes the internal per-path resolver with the
// external merge-program argv contract, so merge-index driving an
// external wrapper can call back into grit.
func newMergeOneFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "merge-one-file <orig> <ours> <theirs> <path> <orig_mode> <ours_mode> <theirs_mode>",
		Short:              "Resolve a single unmerged path",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 7 || hasHelpFlag(args) {
				return exitWithMessage(2, "usage: %s", mergeOneFileUsage)
			}

			r, err := repo.Open(".")
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}

			in := &strategy.PathInput{
				Path:   args[3],
				Orig:   blobRefFromArgs(args[0], args[4]),
				Ours:   blobRefFromArgs(args[1], args[5]),
				Theirs: blobRefFromArgs(args[2], args[6]),
			}

			lock, err := r.LockIndex()
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}
			defer lock.Rollback()

			ix, err := r.ReadIndex()
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}

			rep := strategy.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctx := &strategy.Context{Repo: r, Index: ix, Reporter: rep}

			mergeErr := ctx.MergeOneFile(in)
			if err := lock.Commit(ix); err != nil {
				return exitWithMessage(2, "%v", err)
			}
			if mergeErr != nil {
				return exitCode(1)
			}
			return nil
		},
	}
}

func blobRefFromArgs(hex, mode string) *strategy.BlobRef {
	if hex == "" || mode == "" || mode == "0" {
		return nil
	}
	return &strategy.BlobRef{Blob: object.Hash(hex), Mode: mode}
}
