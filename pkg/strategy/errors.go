package strategy

import "fmt"

// Per-path conflict outcomes. Each carries the C-line message users see;
// drivers count them and map the aggregate to exit code 1.

// ContentConflictError marks a path whose content merge left conflict
// hunks (or had no common ancestor).
type ContentConflictError struct {
	Path string
}

func (e *ContentConflictError) Error() string {
	return fmt.Sprintf("content conflict in %s", e.Path)
}

// PermissionConflictError marks a path whose sides disagree on file mode.
// OrigMode is empty only for a path added identically in both branches,
// which selects the "added identically" message; a content merge with no
// common ancestor reports OrigMode as "0".
type PermissionConflictError struct {
	Path       string
	OrigMode   string
	OursMode   string
	TheirsMode string
}

func (e *PermissionConflictError) Error() string {
	if e.OrigMode == "" {
		return fmt.Sprintf("File %s added identically in both branches, but permissions conflict %s->%s.",
			e.Path, e.OursMode, e.TheirsMode)
	}
	return fmt.Sprintf("permission conflict: %s->%s,%s in %s",
		e.OrigMode, e.OursMode, e.TheirsMode, e.Path)
}

// TypeConflictError marks a path whose merge involves a symlink or
// submodule change, which the resolver refuses to merge.
type TypeConflictError struct {
	Path string
	Kind string // "symlink" or "submodule"
}

func (e *TypeConflictError) Error() string {
	if e.Kind == "symlink" {
		return fmt.Sprintf("%s: Not merging symbolic link changes.", e.Path)
	}
	return fmt.Sprintf("%s: Not merging conflicting submodule changes.", e.Path)
}

// DeletedModifiedError marks a path deleted on one branch whose surviving
// side changed its permissions.
type DeletedModifiedError struct {
	Path string
}

func (e *DeletedModifiedError) Error() string {
	return fmt.Sprintf("File %s deleted on one branch but had its permissions changed on the other.", e.Path)
}

// UntrackedOverwriteError marks an addition that would clobber an
// untracked working tree file.
type UntrackedOverwriteError struct {
	Path string
}

func (e *UntrackedOverwriteError) Error() string {
	return fmt.Sprintf("untracked %s is overwritten by the merge.", e.Path)
}

// UnhandledCaseError marks a stage combination the resolver has no rule
// for, naming the three ids.
type UnhandledCaseError struct {
	Path      string
	OrigHex   string
	OursHex   string
	TheirsHex string
}

func (e *UnhandledCaseError) Error() string {
	return fmt.Sprintf("%s: Not handling case %s -> %s -> %s",
		e.Path, e.OrigHex, e.OursHex, e.TheirsHex)
}

// NotInCacheError is fatal for a walk: the dispatched path has no entries
// in the index.
type NotInCacheError struct {
	Path string
}

func (e *NotInCacheError) Error() string {
	return fmt.Sprintf("%s is not in the cache", e.Path)
}
