package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/odvcencio/grit/pkg/strategy"
	"github.com/spf13/cobra"
)

// newMergeCmd is the porcelain merge: it computes merge bases, runs the
// resolve driver, and records the merge commit on a clean result.
func newMergeCmd() *cobra.Command {
	var signKey string

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := args[0]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			headHash, err := r.ResolveRef("HEAD")
			if err != nil {
				return fmt.Errorf("merge: resolve HEAD: %w", err)
			}
			branchHash, err := r.ResolveRef("refs/heads/" + branchName)
			if err != nil {
				return fmt.Errorf("merge: resolve branch %q: %w", branchName, err)
			}

			out := cmd.OutOrStdout()

			if ok, err := r.IsAncestor(branchHash, headHash); err != nil {
				return fmt.Errorf("merge: %w", err)
			} else if ok {
				fmt.Fprintln(out, "Already up to date.")
				return nil
			}

			bases, err := r.MergeBasesMany(branchHash, []object.Hash{headHash})
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}

			rep := strategy.NewReporter(out, cmd.ErrOrStderr())
			code := strategy.Resolve(r, bases, headHash, branchHash, rep)
			switch code {
			case strategy.ExitConflicts:
				fmt.Fprintln(out, "Automatic merge failed; fix conflicts and then commit the result.")
				return exitCode(1)
			case strategy.ExitFailed:
				return exitCode(2)
			}

			// Fast-forward: head is an ancestor of the branch, no merge
			// commit needed.
			if ok, err := r.IsAncestor(headHash, branchHash); err == nil && ok {
				head, headErr := r.Head()
				if headErr != nil {
					return headErr
				}
				if err := r.UpdateRefCAS(head, branchHash, headHash); err != nil {
					return fmt.Errorf("merge: fast-forward: %w", err)
				}
				fmt.Fprintln(out, "Fast-forward")
				return nil
			}

			signer, err := mergeSigner(r, signKey)
			if err != nil {
				return err
			}

			mergeHash, err := r.CommitMerge(
				fmt.Sprintf("Merge branch '%s'", branchName),
				commitAuthor(r),
				[]object.Hash{headHash, branchHash},
				signer,
			)
			if err != nil {
				return fmt.Errorf("merge: commit: %w", err)
			}

			short := string(mergeHash)
			if len(short) > 8 {
				short = short[:8]
			}
			fmt.Fprintf(out, "[%s] Merge branch '%s'\n", short, branchName)
			return nil
		},
	}

	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key used to sign the merge commit")
	return cmd
}

// mergeSigner builds the commit signer from the flag or repo config.
// Returns a nil signer when signing is not configured.
func mergeSigner(r *repo.Repo, signKey string) (repo.CommitSigner, error) {
	keyPath := signKey
	if keyPath == "" {
		cfg, err := r.ReadConfig()
		if err != nil {
			return nil, err
		}
		keyPath = cfg.Merge.SigningKey
	}
	if keyPath == "" {
		return nil, nil
	}

	signer, _, err := newSSHCommitSigner(keyPath)
	if err != nil {
		return nil, err
	}
	return signer, nil
}
