package main

import (
	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/strategy"
	"github.com/spf13/cobra"
)

const mergeIndexUsage = "grit merge-index [-o] [-q] (<program> | grit-merge-one-file | -) (-a | [--] <file>...)"

// internalMergeProgram selects the built-in per-path resolver instead of
// spawning a child process.
const internalMergeProgram = "grit-merge-one-file"

// newMergeIndexCmd runs a merge program on every unmerged path in the
// index (or on the named paths).
func newMergeIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "merge-index [-o] [-q] <program> (-a | [--] <file>...)",
		Short:              "Run a merge program for unmerged index paths",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			oneshot := false
			quiet := false

			i := 0
			for ; i < len(args); i++ {
				if args[i] == "-o" {
					oneshot = true
				} else if args[i] == "-q" {
					quiet = true
				} else {
					break
				}
			}
			if i >= len(args) {
				return exitWithMessage(2, "usage: %s", mergeIndexUsage)
			}
			program := args[i]
			i++

			all := false
			var paths []string
			for ; i < len(args); i++ {
				switch args[i] {
				case "-a":
					all = true
				case "--":
				default:
					paths = append(paths, args[i])
				}
			}
			if !all && len(paths) == 0 {
				return exitWithMessage(2, "usage: %s", mergeIndexUsage)
			}

			r, err := repo.Open(".")
			if err != nil {
				return exitWithMessage(2, "%v", err)
			}
			// "-" selects the program configured as merge.program.
			if program == "-" {
				cfg, err := r.ReadConfig()
				if err != nil || cfg.Merge.Program == "" {
					return exitWithMessage(2, "merge-index: no merge.program configured")
				}
				program = cfg.Merge.Program
			}

			rep := strategy.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			if program == internalMergeProgram {
				return exitCode(runMergeIndexInternal(r, rep, oneshot, quiet, all, paths))
			}
			return exitCode(runMergeIndexProgram(r, rep, program, oneshot, quiet, all, paths))
		},
	}
}

// runMergeIndexInternal walks the index with the built-in resolver under
// the index lock, so resolved paths are recorded.
func runMergeIndexInternal(r *repo.Repo, rep *strategy.Reporter, oneshot, quiet, all bool, paths []string) int {
	lock, err := r.LockIndex()
	if err != nil {
		rep.ReportError(err)
		return 2
	}
	defer lock.Rollback()

	ix, err := r.ReadIndex()
	if err != nil {
		rep.ReportError(err)
		return 2
	}

	ctx := &strategy.Context{Repo: r, Index: ix, Reporter: rep}
	conflicts, fatal := walkIndex(ix, ctx.MergeOneFile, rep, oneshot, quiet, all, paths)
	if fatal {
		return 2
	}

	if err := lock.Commit(ix); err != nil {
		rep.ReportError(err)
		return 2
	}
	if conflicts > 0 {
		return 1
	}
	return 0
}

// runMergeIndexProgram walks the index spawning the external program per
// path; the child updates the index through its own commands.
func runMergeIndexProgram(r *repo.Repo, rep *strategy.Reporter, program string, oneshot, quiet, all bool, paths []string) int {
	ix, err := r.ReadIndex()
	if err != nil {
		rep.ReportError(err)
		return 2
	}

	cb := strategy.ProgramCallback(program, r.RootDir, rep)
	conflicts, fatal := walkIndex(ix, cb, rep, oneshot, quiet, all, paths)
	if fatal {
		return 2
	}
	if conflicts > 0 {
		return 1
	}
	return 0
}

func walkIndex(ix *index.Index, cb strategy.Callback, rep *strategy.Reporter, oneshot, quiet, all bool, paths []string) (conflicts int, fatal bool) {
	if all {
		n, err := strategy.MergeAll(ix, oneshot, quiet, cb, rep)
		if err != nil && n == 0 {
			return 0, true
		}
		return n, false
	}

	total := 0
	for _, p := range paths {
		n, err := strategy.MergeOnePath(ix, oneshot, quiet, p, cb, rep)
		if err != nil {
			return 0, true
		}
		total += n
		if n > 0 && !oneshot {
			return total, false
		}
	}
	return total, false
}
