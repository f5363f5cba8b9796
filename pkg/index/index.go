// Package index implements the staged merge index: an ordered sequence of
// cache entries sorted by (path, stage), persisted as a single file under
// the repository dot-directory and guarded by an exclusive lock during
// merges.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// Merge stages. Stage 0 is a fully merged entry; stages 1/2/3 hold the
// ancestor, ours and theirs versions of an unmerged path.
const (
	StageMerged   = 0
	StageAncestor = 1
	StageOurs     = 2
	StageTheirs   = 3
)

// Entry records the staged state of a single file at one stage.
type Entry struct {
	Path        string      `json:"path"`
	Blob        object.Hash `json:"blob"`
	Mode        string      `json:"mode"`
	Stage       int         `json:"stage,omitempty"`
	ModTime     int64       `json:"mod_time,omitempty"`
	Size        int64       `json:"size,omitempty"`
	AssumeValid bool        `json:"assume_valid,omitempty"`
}

// Index holds the full index: entries sorted by (Path, Stage).
type Index struct {
	Entries []*Entry `json:"entries"`
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Load reads an index file. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	ix.sort()
	return &ix, nil
}

// Write atomically writes the index to path via temp file + rename.
func (ix *Index) Write(path string) error {
	ix.sort()
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write index: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: close: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: rename: %w", err)
	}
	return nil
}

func (ix *Index) sort() {
	sort.SliceStable(ix.Entries, func(i, j int) bool {
		if ix.Entries[i].Path != ix.Entries[j].Path {
			return ix.Entries[i].Path < ix.Entries[j].Path
		}
		return ix.Entries[i].Stage < ix.Entries[j].Stage
	})
}

// Pos returns the position of the first entry for path via binary search.
// ok is false when no entry for path exists; pos is then the insertion
// point.
func (ix *Index) Pos(path string) (pos int, ok bool) {
	pos = sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Path >= path
	})
	ok = pos < len(ix.Entries) && ix.Entries[pos].Path == path
	return pos, ok
}

// EntriesFor returns all entries for path in stage order.
func (ix *Index) EntriesFor(path string) []*Entry {
	pos, ok := ix.Pos(path)
	if !ok {
		return nil
	}
	end := pos
	for end < len(ix.Entries) && ix.Entries[end].Path == path {
		end++
	}
	return ix.Entries[pos:end]
}

// Stage returns the entry for (path, stage), or nil.
func (ix *Index) Stage(path string, stage int) *Entry {
	for _, e := range ix.EntriesFor(path) {
		if e.Stage == stage {
			return e
		}
	}
	return nil
}

// Add inserts or replaces an entry. Adding a stage-0 entry evicts any
// stage-1/2/3 entries for the path, and vice versa: stage 0 and the
// unmerged stages are mutually exclusive at rest.
func (ix *Index) Add(e *Entry) {
	kept := ix.Entries[:0]
	for _, cur := range ix.Entries {
		if cur.Path != e.Path {
			kept = append(kept, cur)
			continue
		}
		if e.Stage == StageMerged || cur.Stage == StageMerged || cur.Stage == e.Stage {
			continue
		}
		kept = append(kept, cur)
	}
	ix.Entries = append(kept, e)
	ix.sort()
}

// Remove deletes all entries for path. It reports whether anything was
// removed.
func (ix *Index) Remove(path string) bool {
	kept := ix.Entries[:0]
	removed := false
	for _, cur := range ix.Entries {
		if cur.Path == path {
			removed = true
			continue
		}
		kept = append(kept, cur)
	}
	ix.Entries = kept
	return removed
}

// HasUnmerged reports whether any stage-1/2/3 entry remains.
func (ix *Index) HasUnmerged() bool {
	for _, e := range ix.Entries {
		if e.Stage != StageMerged {
			return true
		}
	}
	return false
}

// UnmergedPaths returns the distinct paths that carry stage-1/2/3 entries,
// in index order.
func (ix *Index) UnmergedPaths() []string {
	var paths []string
	last := ""
	for _, e := range ix.Entries {
		if e.Stage == StageMerged || e.Path == last {
			continue
		}
		paths = append(paths, e.Path)
		last = e.Path
	}
	return paths
}

// IsUnborn reports whether the index has no entries at all.
func (ix *Index) IsUnborn() bool {
	return len(ix.Entries) == 0
}

// Refresh updates stat information for stage-0 entries against the working
// tree rooted at root. Entries marked AssumeValid and missing worktree files
// are left untouched.
func (ix *Index) Refresh(root string) {
	for _, e := range ix.Entries {
		if e.Stage != StageMerged || e.AssumeValid {
			continue
		}
		info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(e.Path)))
		if err != nil {
			continue
		}
		e.ModTime = info.ModTime().Unix()
		e.Size = info.Size()
	}
}

// ValidPath checks that path is a well-formed repository-relative path:
// non-empty, slash-separated, no NUL bytes, not absolute, and free of
// "", ".", ".." and dot-directory components.
func ValidPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("path contains NUL byte")
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("absolute path %q", path)
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".", "..", ".grit":
			return fmt.Errorf("invalid path component %q in %q", seg, path)
		}
	}
	return nil
}
