package main

import (
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// strategyArgs is the parsed form of a merge driver command line:
// `<bases>... -- <head> <remotes>...`.
type strategyArgs struct {
	bases    []object.Hash
	head     object.Hash
	remotes  []object.Hash
	baseless bool
}

// parseStrategyArgs splits driver arguments at the "--" separator.
// Arguments before it are merge bases, the first after it is the head,
// the rest are remotes. Arguments naming the empty tree are skipped.
// When singleRemote is set, a second remote aborts with code 2 (the
// caller should use octopus instead).
func parseStrategyArgs(r *repo.Repo, args []string, singleRemote bool) (*strategyArgs, error) {
	parsed := &strategyArgs{baseless: true}
	sepSeen := false
	headArg := ""

	for _, arg := range args {
		switch {
		case arg == "--":
			sepSeen = true
		case sepSeen && headArg == "":
			headArg = arg
		default:
			if singleRemote && len(parsed.remotes) > 0 {
				// Give up if we are given two or more remotes. Not
				// handling octopus.
				return nil, exitCode(2)
			}

			oid, err := r.ResolveCommitish(arg)
			if err != nil {
				return nil, exitWithMessage(2, "fatal: bad revision '%s'", arg)
			}
			parsed.baseless = parsed.baseless && sepSeen

			if oid == object.EmptyTreeID() {
				continue
			}
			if _, err := r.Store.ReadCommit(oid); err != nil {
				return nil, exitWithMessage(2, "fatal: '%s' is not a commit", arg)
			}

			if sepSeen {
				parsed.remotes = append(parsed.remotes, oid)
			} else {
				parsed.bases = append(parsed.bases, oid)
			}
		}
	}

	if headArg != "" {
		head, err := r.ResolveCommitish(headArg)
		if err != nil {
			return nil, exitWithMessage(2, "fatal: bad revision '%s'", headArg)
		}
		parsed.head = head
	}

	return parsed, nil
}
