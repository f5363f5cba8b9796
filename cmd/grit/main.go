package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "grit",
		Short:         "Content-addressed version control with tree-merge drivers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newMergeResolveCmd())
	root.AddCommand(newMergeOctopusCmd())
	root.AddCommand(newMergeIndexCmd())
	root.AddCommand(newMergeOneFileCmd())

	if err := root.Execute(); err != nil {
		var exit *exitCodeError
		if errors.As(err, &exit) {
			if exit.message != "" {
				fmt.Fprintln(os.Stderr, exit.message)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("grit 0.1.0-dev")
		},
	}
}

// exitCodeError carries a driver exit code through cobra's error path.
// The merge drivers' contract is 0 = clean, 1 = conflicts recorded,
// 2 = merge not attempted or structurally failed.
type exitCodeError struct {
	code    int
	message string
}

func (e *exitCodeError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitCodeError{code: code}
}

func exitWithMessage(code int, format string, args ...any) error {
	return &exitCodeError{code: code, message: fmt.Sprintf(format, args...)}
}
