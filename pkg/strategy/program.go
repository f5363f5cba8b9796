package strategy

import (
	"os/exec"
)

// ProgramCallback adapts an external merge program to the merge callback
// signature. The child is invoked as
//
//	<program> <orig_hex> <ours_hex> <theirs_hex> <path> <orig_mode> <ours_mode> <theirs_mode>
//
// with missing blobs passed as empty strings and modes in canonical octal.
// A non-zero exit status marks the path as conflicted. The child is
// responsible for updating the index through its own commands; the
// callback does not touch it.
func ProgramCallback(program string, workDir string, rep *Reporter) Callback {
	return func(in *PathInput) error {
		cmd := exec.Command(program,
			hexOrEmpty(in.Orig),
			hexOrEmpty(in.Ours),
			hexOrEmpty(in.Theirs),
			in.Path,
			modeOrZero(in.Orig),
			modeOrZero(in.Ours),
			modeOrZero(in.Theirs),
		)
		cmd.Dir = workDir
		cmd.Stdout = rep.Out
		cmd.Stderr = rep.Err
		return cmd.Run()
	}
}
