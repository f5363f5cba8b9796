package repo

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/grit/pkg/index"
	"github.com/odvcencio/grit/pkg/object"
)

// ErrUnmergedEntries is returned by WriteIndexAsTree when stage-1/2/3
// entries remain in the index. Merge drivers use this failure as the
// conflict signal.
var ErrUnmergedEntries = errors.New("index has unmerged entries")

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
	Mode     string
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir {
			sub, err := r.flattenTreeRec(entry.SubtreeHash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path:     fullPath,
				BlobHash: entry.BlobHash,
				Mode:     normalizeFileMode(entry.Mode),
			})
		}
	}
	return result, nil
}

// TreeIDOf resolves an object id that may name a commit or a tree to the
// tree id.
func (r *Repo) TreeIDOf(h object.Hash) (object.Hash, error) {
	objType, content, err := r.Store.Read(h)
	if err != nil {
		if h == object.EmptyTreeID() {
			return h, nil
		}
		return "", fmt.Errorf("resolve tree of %s: %w", h, err)
	}
	switch objType {
	case object.TypeTree:
		return h, nil
	case object.TypeCommit:
		c, err := object.UnmarshalCommit(content)
		if err != nil {
			return "", fmt.Errorf("resolve tree of %s: %w", h, err)
		}
		return c.TreeHash, nil
	default:
		return "", fmt.Errorf("resolve tree of %s: unexpected type %s", h, objType)
	}
}

// WriteIndexAsTree converts the stage-0 entries of the index into a
// hierarchical tree, writing TreeObj objects to the store and returning
// the root hash. It fails with ErrUnmergedEntries when any stage-1/2/3
// entry remains.
func (r *Repo) WriteIndexAsTree(ix *index.Index) (object.Hash, error) {
	if ix.HasUnmerged() {
		return "", ErrUnmergedEntries
	}

	files := make(map[string]*index.Entry, len(ix.Entries))
	for _, e := range ix.Entries {
		files[e.Path] = e
	}
	return r.buildTreeDir(files, "")
}

// buildTreeDir builds a TreeObj for the given directory prefix and writes
// it to the store. It returns the tree's hash.
func (r *Repo) buildTreeDir(files map[string]*index.Entry, prefix string) (object.Hash, error) {
	// Collect direct children: files and subdirectory names.
	direct := make(map[string]*index.Entry) // name -> entry
	subdirs := make(map[string]struct{})    // immediate child dir names

	for p, entry := range files {
		// Determine the path relative to our prefix.
		var rel string
		if prefix == "" {
			rel = p
		} else {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}

		// Split into first segment and rest.
		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			direct[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	// Build the tree entries, sorted by name.
	names := make([]string, 0, len(direct)+len(subdirs))
	for name := range direct {
		names = append(names, name)
	}
	for name := range subdirs {
		// Only add if not already a file (a name cannot be both).
		if _, isFile := direct[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if entry, isFile := direct[name]; isFile {
			entries = append(entries, object.TreeEntry{
				Name:     name,
				Mode:     normalizeFileMode(entry.Mode),
				BlobHash: entry.Blob,
			})
		} else {
			// Subdirectory: recurse.
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			subHash, err := r.buildTreeDir(files, childPrefix)
			if err != nil {
				return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
			}
			entries = append(entries, object.TreeEntry{
				Name:        name,
				IsDir:       true,
				SubtreeHash: subHash,
			})
		}
	}

	treeObj := &object.TreeObj{Entries: entries}
	h, err := r.Store.WriteTree(treeObj)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// IndexHasChanges compares the index against the given tree and returns
// the paths that differ, in sorted order. Unmerged paths always count as
// changed.
func (r *Repo) IndexHasChanges(ix *index.Index, treeHash object.Hash) ([]string, error) {
	flat, err := r.FlattenTree(treeHash)
	if err != nil {
		return nil, fmt.Errorf("index has changes: %w", err)
	}

	inTree := make(map[string]TreeFileEntry, len(flat))
	for _, f := range flat {
		inTree[f.Path] = f
	}

	changed := make(map[string]struct{})
	seen := make(map[string]struct{}, len(ix.Entries))
	for _, e := range ix.Entries {
		seen[e.Path] = struct{}{}
		if e.Stage != index.StageMerged {
			changed[e.Path] = struct{}{}
			continue
		}
		f, ok := inTree[e.Path]
		if !ok || f.BlobHash != e.Blob || f.Mode != normalizeFileMode(e.Mode) {
			changed[e.Path] = struct{}{}
		}
	}
	for p := range inTree {
		if _, ok := seen[p]; !ok {
			changed[p] = struct{}{}
		}
	}

	paths := make([]string, 0, len(changed))
	for p := range changed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
