package repo

import (
	"container/heap"
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
)

const (
	maxMergeBaseBFSSteps = 1_000_000
	maxMergeBaseBFSDepth = 1_000_000
)

// These vars allow tests to tighten safety limits without affecting
// production defaults.
var (
	mergeBaseBFSStepsLimit = maxMergeBaseBFSSteps
	mergeBaseBFSDepthLimit = maxMergeBaseBFSDepth
)

type mergeBaseTraversalQueueItem struct {
	hash  object.Hash
	depth int
}

func mergeBaseTraversalLimits() (maxSteps int, maxDepth int) {
	maxSteps = normalizeMergeBaseTraversalLimit(mergeBaseBFSStepsLimit, maxMergeBaseBFSSteps)
	maxDepth = normalizeMergeBaseTraversalLimit(mergeBaseBFSDepthLimit, maxMergeBaseBFSDepth)

	return maxSteps, maxDepth
}

func normalizeMergeBaseTraversalLimit(limit, hardMax int) int {
	// Keep safety defaults as hard bounds; test hooks may only tighten.
	if limit <= 0 || limit > hardMax {
		return hardMax
	}
	return limit
}

func mergeBaseStepsLimitError(limit int) error {
	return fmt.Errorf("find merge base: traversal exceeded maximum steps (%d)", limit)
}

func mergeBaseDepthLimitError(limit int) error {
	return fmt.Errorf("find merge base: traversal exceeded maximum depth (%d)", limit)
}

// IsAncestor reports whether ancestor is reachable from descendant by
// following parent links. A commit is an ancestor of itself.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	state := r.getMergeTraversalState()
	ancestorGeneration, err := state.generation(r, ancestor)
	if err != nil {
		return false, err
	}
	descendantGeneration, err := state.generation(r, descendant)
	if err != nil {
		return false, err
	}
	return r.isAncestorWithGeneration(state, ancestor, descendant, ancestorGeneration, descendantGeneration)
}

func (r *Repo) isAncestorWithGeneration(state *mergeBaseTraversalState, ancestor, descendant object.Hash, ancestorGeneration, descendantGeneration uint64) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	if ancestorGeneration > descendantGeneration {
		return false, nil
	}

	maxSteps, maxDepth := mergeBaseTraversalLimits()
	visited := map[object.Hash]struct{}{descendant: {}}
	queue := []mergeBaseTraversalQueueItem{{hash: descendant, depth: 0}}
	steps := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		steps++
		if steps > maxSteps {
			return false, mergeBaseStepsLimitError(maxSteps)
		}
		if item.depth > maxDepth {
			return false, mergeBaseDepthLimitError(maxDepth)
		}

		cur := item.hash
		if cur == ancestor {
			return true, nil
		}

		curGeneration, err := state.generation(r, cur)
		if err != nil {
			return false, err
		}
		if curGeneration <= ancestorGeneration {
			continue
		}

		commit, err := state.readCommit(r, cur)
		if err != nil {
			return false, err
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, seen := visited[p]; seen {
				continue
			}
			parentGeneration, err := state.generation(r, p)
			if err != nil {
				return false, err
			}
			if parentGeneration < ancestorGeneration {
				continue
			}
			childDepth := item.depth + 1
			if childDepth > maxDepth {
				return false, mergeBaseDepthLimitError(maxDepth)
			}
			visited[p] = struct{}{}
			queue = append(queue, mergeBaseTraversalQueueItem{hash: p, depth: childDepth})
		}
	}

	return false, nil
}

// ancestorSet collects every commit reachable from the given starts,
// including the starts themselves.
func (r *Repo) ancestorSet(state *mergeBaseTraversalState, starts []object.Hash) (map[object.Hash]struct{}, error) {
	maxSteps, maxDepth := mergeBaseTraversalLimits()

	set := make(map[object.Hash]struct{})
	var queue []mergeBaseTraversalQueueItem
	for _, s := range starts {
		if s == "" {
			continue
		}
		if _, seen := set[s]; seen {
			continue
		}
		set[s] = struct{}{}
		queue = append(queue, mergeBaseTraversalQueueItem{hash: s, depth: 0})
	}

	steps := 0
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		steps++
		if steps > maxSteps {
			return nil, mergeBaseStepsLimitError(maxSteps)
		}
		if item.depth > maxDepth {
			return nil, mergeBaseDepthLimitError(maxDepth)
		}

		commit, err := state.readCommit(r, item.hash)
		if err != nil {
			return nil, err
		}
		for _, p := range commit.Parents {
			if p == "" {
				continue
			}
			if _, seen := set[p]; seen {
				continue
			}
			set[p] = struct{}{}
			queue = append(queue, mergeBaseTraversalQueueItem{hash: p, depth: item.depth + 1})
		}
	}

	return set, nil
}

// MergeBasesMany finds the merge bases between commit c and the given
// reference commits taken collectively: the maximal commits reachable
// both from c and from at least one reference. Results are ordered by
// generation, highest first.
func (r *Repo) MergeBasesMany(c object.Hash, refs []object.Hash) ([]object.Hash, error) {
	if c == "" || len(refs) == 0 {
		return nil, nil
	}

	state := r.getMergeTraversalState()

	ours, err := r.ancestorSet(state, []object.Hash{c})
	if err != nil {
		return nil, err
	}
	theirs, err := r.ancestorSet(state, refs)
	if err != nil {
		return nil, err
	}

	// Intersect, carrying generations for ordering.
	var candidates mergeBaseMaxHeap
	for h := range ours {
		if _, ok := theirs[h]; !ok {
			continue
		}
		g, err := state.generation(r, h)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, mergeBaseQueueItem{hash: h, generation: g})
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	heap.Init(&candidates)

	// Keep only maximal candidates: walking generations downward, a
	// candidate that is an ancestor of an already selected base is
	// redundant.
	var bases []object.Hash
	for candidates.Len() > 0 {
		item := heap.Pop(&candidates).(mergeBaseQueueItem)
		redundant := false
		for _, b := range bases {
			bg, err := state.generation(r, b)
			if err != nil {
				return nil, err
			}
			isAnc, err := r.isAncestorWithGeneration(state, item.hash, b, item.generation, bg)
			if err != nil {
				return nil, err
			}
			if isAnc {
				redundant = true
				break
			}
		}
		if !redundant {
			bases = append(bases, item.hash)
		}
	}

	return bases, nil
}
