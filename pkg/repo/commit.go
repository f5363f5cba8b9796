package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// Commit creates a new commit from the current index.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is
// provided.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(ix.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.WriteIndexAsTree(ix)
	if err != nil {
		if errors.Is(err, ErrUnmergedEntries) {
			return "", fmt.Errorf("commit: unmerged paths remain; resolve them first")
		}
		return "", fmt.Errorf("commit: %w", err)
	}

	// Resolve HEAD to get parent (may not exist for first commit).
	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	}

	return r.writeCommit(message, author, treeHash, parents, parentHash, signer)
}

// CommitMerge creates a commit with two or more parents from the current
// index. This mirrors CommitWithSigner but takes explicit parent hashes.
func (r *Repo) CommitMerge(message, author string, parents []object.Hash, signer CommitSigner) (object.Hash, error) {
	if len(parents) < 2 {
		return "", fmt.Errorf("merge commit: need at least two parents")
	}

	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}

	treeHash, err := r.WriteIndexAsTree(ix)
	if err != nil {
		if errors.Is(err, ErrUnmergedEntries) {
			return "", fmt.Errorf("merge commit: unmerged paths remain; resolve them first")
		}
		return "", fmt.Errorf("merge commit: %w", err)
	}

	return r.writeCommit(message, author, treeHash, parents, parents[0], signer)
}

func (r *Repo) writeCommit(message, author string, treeHash object.Hash, parents []object.Hash, expectedOld object.Hash, signer CommitSigner) (object.Hash, error) {
	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}
	if signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := signer(payload)
		if err != nil {
			return "", fmt.Errorf("sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}

	// Update current branch ref.
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}

	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if expectedOld == "" {
			updateErr = r.UpdateRefCAS(head, commitHash)
		} else {
			updateErr = r.UpdateRefCAS(head, commitHash, expectedOld)
		}
		if updateErr != nil {
			return "", fmt.Errorf("update ref %q: %w", head, updateErr)
		}
	} else {
		// Detached HEAD: update HEAD directly with a CAS against the old hash.
		if err := r.UpdateRefCAS("HEAD", commitHash, object.Hash(strings.TrimSpace(head))); err != nil {
			return "", fmt.Errorf("update detached HEAD: %w", err)
		}
	}

	return commitHash, nil
}
