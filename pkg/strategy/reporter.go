// Package strategy implements the tree-merge drivers: the resolve and
// octopus strategies, the per-path three-way resolver, and the index
// walker that dispatches unmerged paths to a merge callback.
package strategy

import (
	"fmt"
	"io"
	"os"
)

// Reporter writes user-visible merge output. Progress lines go to Out,
// errors to Err. Each merged path produces at most one progress line, and
// message order follows index order; that determinism is part of the
// drivers' contract.
type Reporter struct {
	Out io.Writer
	Err io.Writer
}

// NewReporter builds a reporter over the given writers.
func NewReporter(out, err io.Writer) *Reporter {
	return &Reporter{Out: out, Err: err}
}

// DefaultReporter writes to stdout/stderr.
func DefaultReporter() *Reporter {
	return &Reporter{Out: os.Stdout, Err: os.Stderr}
}

// Printf emits a progress line.
func (rep *Reporter) Printf(format string, args ...any) {
	fmt.Fprintf(rep.Out, format, args...)
}

// Errorf prints a single-line error message to Err and returns it as an
// error for the caller to propagate.
func (rep *Reporter) Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	fmt.Fprintf(rep.Err, "error: %v\n", err)
	return err
}

// ReportError prints an already constructed error to Err and returns it.
func (rep *Reporter) ReportError(err error) error {
	fmt.Fprintf(rep.Err, "error: %v\n", err)
	return err
}
