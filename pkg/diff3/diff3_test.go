package diff3

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// MyersDiff
// ---------------------------------------------------------------------------

func TestMyersDiff_Basic(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "x", "c"}

	ops := MyersDiff(a, b)

	// We expect: Equal "a", Delete "b", Insert "x", Equal "c"
	wantTypes := []DiffType{Equal, Delete, Insert, Equal}
	wantLines := []string{"a", "b", "x", "c"}

	if len(ops) != len(wantTypes) {
		t.Fatalf("got %d ops, want %d: %v", len(ops), len(wantTypes), ops)
	}
	for i, op := range ops {
		if op.Type != wantTypes[i] || op.Line != wantLines[i] {
			t.Errorf("op[%d] = {%v, %q}, want {%v, %q}",
				i, op.Type, op.Line, wantTypes[i], wantLines[i])
		}
	}
}

func TestMyersDiff_EmptyToNonEmpty(t *testing.T) {
	ops := MyersDiff(nil, []string{"a", "b"})
	for _, op := range ops {
		if op.Type != Insert {
			t.Errorf("expected all Insert ops, got %v", op)
		}
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(ops))
	}
}

func TestMyersDiff_Identical(t *testing.T) {
	a := []string{"a", "b", "c"}
	ops := MyersDiff(a, a)
	for _, op := range ops {
		if op.Type != Equal {
			t.Errorf("expected all Equal ops, got %v", op)
		}
	}
}

// ---------------------------------------------------------------------------
// Merge — clean cases
// ---------------------------------------------------------------------------

func TestMerge_CleanTopBottom(t *testing.T) {
	base := []byte("line1\nline2\nline3\n")
	ours := []byte("new-top\nline1\nline2\nline3\n")
	theirs := []byte("line1\nline2\nline3\nnew-bottom\n")

	r := Merge(base, ours, theirs, Options{})

	if r.HasConflicts() {
		t.Fatal("expected clean merge, got conflicts")
	}
	want := "new-top\nline1\nline2\nline3\nnew-bottom\n"
	if string(r.Merged) != want {
		t.Errorf("merged = %q, want %q", r.Merged, want)
	}
}

func TestMerge_OnlyOneSideChanged(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nB\nc\n")

	r := Merge(base, ours, base, Options{})
	if r.HasConflicts() {
		t.Fatal("unexpected conflicts")
	}
	if string(r.Merged) != "a\nB\nc\n" {
		t.Errorf("merged = %q", r.Merged)
	}
}

func TestMerge_IdenticalChange(t *testing.T) {
	base := []byte("a\nb\nc\n")
	side := []byte("a\nB\nc\n")

	r := Merge(base, side, side, Options{})
	if r.HasConflicts() {
		t.Fatal("identical change should merge cleanly")
	}
	if string(r.Merged) != "a\nB\nc\n" {
		t.Errorf("merged = %q", r.Merged)
	}
}

// ---------------------------------------------------------------------------
// Merge — conflicts
// ---------------------------------------------------------------------------

func TestMerge_ConflictSameRegion(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nOURS\nc\n")
	theirs := []byte("a\nTHEIRS\nc\n")

	r := Merge(base, ours, theirs, Options{})
	if r.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", r.Conflicts)
	}

	merged := string(r.Merged)
	for _, marker := range []string{"<<<<<<< ours", "=======", ">>>>>>> theirs"} {
		if !strings.Contains(merged, marker) {
			t.Errorf("merged output missing %q:\n%s", marker, merged)
		}
	}
	if !strings.Contains(merged, "OURS") || !strings.Contains(merged, "THEIRS") {
		t.Error("merged output missing side content")
	}
}

func TestMerge_ConflictUsesLabels(t *testing.T) {
	base := []byte("x\n")
	ours := []byte("y\n")
	theirs := []byte("z\n")

	r := Merge(base, ours, theirs, Options{Labels: [3]string{"orig", "our", "their"}})
	if r.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", r.Conflicts)
	}
	if !bytes.Contains(r.Merged, []byte("<<<<<<< our\n")) {
		t.Errorf("missing ours label:\n%s", r.Merged)
	}
	if !bytes.Contains(r.Merged, []byte(">>>>>>> their\n")) {
		t.Errorf("missing theirs label:\n%s", r.Merged)
	}
}

func TestMerge_EmptyBaseBothAdd(t *testing.T) {
	ours := []byte("from-ours\n")
	theirs := []byte("from-theirs\n")

	r := Merge(nil, ours, theirs, Options{})
	if r.Conflicts == 0 {
		t.Fatal("expected a conflict for divergent additions")
	}
}

// ---------------------------------------------------------------------------
// Zealous alphanumeric reduction
// ---------------------------------------------------------------------------

func TestMerge_ZealousResolvesWhitespaceOnly(t *testing.T) {
	base := []byte("value = 1\n")
	ours := []byte("value=1\n")
	theirs := []byte("value  =  1\n")

	r := Merge(base, ours, theirs, Options{ZealousAlnum: true})
	if r.Conflicts != 0 {
		t.Fatalf("conflicts = %d, want 0 with zealous reduction:\n%s", r.Conflicts, r.Merged)
	}
	// The ours rendering wins for reduced lines.
	if string(r.Merged) != "value=1\n" {
		t.Errorf("merged = %q", r.Merged)
	}
}

func TestMerge_ZealousShrinksConflict(t *testing.T) {
	base := []byte("keep\nmid\nend\n")
	ours := []byte("keep\nours-mid\nend;\n")
	theirs := []byte("keep\ntheirs-mid\nend ;\n")

	r := Merge(base, ours, theirs, Options{ZealousAlnum: true})
	if r.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1:\n%s", r.Conflicts, r.Merged)
	}

	merged := string(r.Merged)
	// The trailing line differs only in whitespace and must sit outside the
	// markers, using the ours rendering.
	idx := strings.Index(merged, ">>>>>>>")
	if idx < 0 {
		t.Fatalf("no closing marker:\n%s", merged)
	}
	after := merged[idx:]
	if !strings.Contains(after, "end;") {
		t.Errorf("reduced suffix not hoisted below conflict:\n%s", merged)
	}
	if strings.Contains(merged[:idx], "end;") {
		t.Errorf("reduced suffix still inside conflict:\n%s", merged)
	}
}

func TestMerge_ZealousKeepsRealConflicts(t *testing.T) {
	base := []byte("a\n")
	ours := []byte("one\n")
	theirs := []byte("two\n")

	r := Merge(base, ours, theirs, Options{ZealousAlnum: true})
	if r.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", r.Conflicts)
	}
}

func TestAlnumEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"foo = 1;", "foo=1", true},
		{"foo", "bar", false},
		{"", "  \t", true},
		{"a b c", "abc", true},
		{"ab1", "ab2", false},
	}
	for _, tc := range cases {
		if got := alnumEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("alnumEqual(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
