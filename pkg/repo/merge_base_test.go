package repo

import (
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

// chain builds a linear history of n commits on top of parent, returning
// all created commits oldest first.
func chain(t *testing.T, r *Repo, parent object.Hash, labels ...string) []object.Hash {
	t.Helper()

	var out []object.Hash
	for _, label := range labels {
		tree := writeTreeFromFiles(t, r, map[string]string{"f.txt": label + "\n"})
		var parents []object.Hash
		if parent != "" {
			parents = append(parents, parent)
		}
		c := writeCommit(t, r, tree, parents...)
		out = append(out, c)
		parent = c
	}
	return out
}

func TestIsAncestorLinear(t *testing.T) {
	r := newTestRepo(t)

	cs := chain(t, r, "", "a", "b", "c")

	if ok, err := r.IsAncestor(cs[0], cs[2]); err != nil || !ok {
		t.Errorf("IsAncestor(root, tip) = %v, %v", ok, err)
	}
	if ok, err := r.IsAncestor(cs[2], cs[0]); err != nil || ok {
		t.Errorf("IsAncestor(tip, root) = %v, %v", ok, err)
	}
	if ok, err := r.IsAncestor(cs[1], cs[1]); err != nil || !ok {
		t.Errorf("IsAncestor(self, self) = %v, %v", ok, err)
	}
}

func TestMergeBasesManyFastForward(t *testing.T) {
	r := newTestRepo(t)

	cs := chain(t, r, "", "a", "b", "c")
	head := cs[0]
	tip := cs[2]

	bases, err := r.MergeBasesMany(tip, []object.Hash{head})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 1 || bases[0] != head {
		t.Errorf("bases = %v, want [%s]", bases, head)
	}
}

func TestMergeBasesManyDiverged(t *testing.T) {
	r := newTestRepo(t)

	root := chain(t, r, "", "root")[0]
	left := chain(t, r, root, "left1", "left2")
	right := chain(t, r, root, "right1")

	bases, err := r.MergeBasesMany(right[0], []object.Hash{left[1]})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 1 || bases[0] != root {
		t.Errorf("bases = %v, want [%s]", bases, root)
	}
}

func TestMergeBasesManyCrissCross(t *testing.T) {
	r := newTestRepo(t)

	root := chain(t, r, "", "root")[0]
	a := chain(t, r, root, "a")[0]
	b := chain(t, r, root, "b")[0]

	// Cross merges: x has parents (a, b); y has parents (b, a).
	treeX := writeTreeFromFiles(t, r, map[string]string{"f.txt": "x\n"})
	x := writeCommit(t, r, treeX, a, b)
	treeY := writeTreeFromFiles(t, r, map[string]string{"f.txt": "y\n"})
	y := writeCommit(t, r, treeY, b, a)

	bases, err := r.MergeBasesMany(x, []object.Hash{y})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 2 {
		t.Fatalf("bases = %v, want both cross parents", bases)
	}
	found := map[object.Hash]bool{}
	for _, h := range bases {
		found[h] = true
	}
	if !found[a] || !found[b] {
		t.Errorf("bases = %v, want {%s, %s}", bases, a, b)
	}
}

func TestMergeBasesManyUnrelated(t *testing.T) {
	r := newTestRepo(t)

	left := chain(t, r, "", "left")[0]
	right := chain(t, r, "", "right")[0]

	bases, err := r.MergeBasesMany(left, []object.Hash{right})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 0 {
		t.Errorf("bases = %v, want none", bases)
	}
}

func TestMergeBasesManyAgainstSeveralReferences(t *testing.T) {
	r := newTestRepo(t)

	root := chain(t, r, "", "root")[0]
	a := chain(t, r, root, "a")[0]
	b := chain(t, r, root, "b")[0]
	c := chain(t, r, root, "c")[0]

	// The merge base of c against {a, b} collectively is the shared root.
	bases, err := r.MergeBasesMany(c, []object.Hash{a, b})
	if err != nil {
		t.Fatalf("MergeBasesMany: %v", err)
	}
	if len(bases) != 1 || bases[0] != root {
		t.Errorf("bases = %v, want [%s]", bases, root)
	}
}
