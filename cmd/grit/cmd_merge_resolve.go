package main

import (
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/strategy"
	"github.com/spf13/cobra"
)

const mergeResolveUsage = "grit merge-resolve <bases>... -- <head> <remote>"

// newMergeResolveCmd resolves two trees using an enhanced multi-base
// unpack-trees pass with a per-path content-merge fallback.
func newMergeResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "merge-resolve <bases>... -- <head> <remote>",
		Short:              "Merge two heads using the resolve strategy",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 4 || hasHelpFlag(args) {
				return exitWithMessage(2, "usage: %s", mergeResolveUsage)
			}

			r, err := repo.Open(".")
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}

			parsed, err := parseStrategyArgs(r, args, true)
			if err != nil {
				return err
			}

			// Give up if this is a baseless merge.
			if parsed.baseless {
				return exitCode(2)
			}

			var remote object.Hash
			if len(parsed.remotes) > 0 {
				remote = parsed.remotes[0]
			}

			rep := strategy.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return exitCode(strategy.Resolve(r, parsed.bases, parsed.head, remote, rep))
		},
	}
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "-h" {
			return true
		}
	}
	return false
}
