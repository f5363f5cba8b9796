package main

import (
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/strategy"
	"github.com/spf13/cobra"
)

const mergeOctopusUsage = "grit merge-octopus [<bases>...] -- <head> <remote1> <remote2> [<remotes>...]"

// newMergeOctopusCmd resolves two or more trees.
func newMergeOctopusCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "merge-octopus [<bases>...] -- <head> <remotes>...",
		Short:              "Merge two or more heads using the octopus strategy",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 4 || hasHelpFlag(args) {
				return exitWithMessage(2, "usage: %s", mergeOctopusUsage)
			}

			r, err := repo.Open(".")
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}

			parsed, err := parseStrategyArgs(r, args, false)
			if err != nil {
				return err
			}

			// Reject if this is not an octopus -- resolve should be used
			// instead.
			if len(parsed.remotes) < 2 {
				return exitCode(2)
			}

			rep := strategy.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return exitCode(strategy.Octopus(r, parsed.bases, parsed.head, parsed.remotes, rep))
		},
	}
}
