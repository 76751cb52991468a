// Package vcs is the sole entry point for version-control primitives.
// Downstream code must never call a git library directly; every ref
// resolution, diff and worktree checkout goes through this adapter so
// it stays mockable for tests and swappable if the backend ever
// changes.
package vcs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ChangeKind classifies one entry in a name-status diff.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
	Renamed  ChangeKind = "renamed"
)

// Change is one path-level difference between two trees.
type Change struct {
	Kind    ChangeKind
	Path    string
	OldPath string // populated only when Kind == Renamed
}

// Adapter wraps one repository's go-git handle.
type Adapter struct {
	repo *git.Repository
	root string
}

// Detect opens the repository rooted at or above path. It returns
// (nil, nil) when path is not under version control, since the spec
// treats git-less projects as a valid, if degraded, mode.
func Detect(path string) (*Adapter, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, nil
		}
		return nil, fmt.Errorf("detect repo: %w", err)
	}
	wt, err := repo.Worktree()
	root := path
	if err == nil {
		root = wt.Filesystem.Root()
	}
	return &Adapter{repo: repo, root: root}, nil
}

// ResolveHead returns the commit hash HEAD currently points at.
func (a *Adapter) ResolveHead() (string, error) {
	head, err := a.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve head: %w", err)
	}
	return head.Hash().String(), nil
}

// ResolveRef returns the commit hash a branch, tag or raw hash
// resolves to, used to pin a sync to the exact commit its ref named
// before diffing.
func (a *Adapter) ResolveRef(ref string) (string, error) {
	commit, err := a.commit(ref)
	if err != nil {
		return "", err
	}
	return commit.Hash.String(), nil
}

// ListRefs returns every local branch and tag name, used to answer
// list_refs.
func (a *Adapter) ListRefs() ([]string, error) {
	var refs []string
	branches, err := a.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	err = branches.ForEach(func(r *plumbing.Reference) error {
		refs = append(refs, r.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	tags, err := a.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	err = tags.ForEach(func(r *plumbing.Reference) error {
		refs = append(refs, r.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return refs, nil
}

func (a *Adapter) commit(ref string) (*object.Commit, error) {
	hash, err := a.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", ref, err)
	}
	commit, err := a.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("commit object %s: %w", ref, err)
	}
	return commit, nil
}

// MergeBase returns the merge base commit hash of a and b.
func (a *Adapter) MergeBase(refA, refB string) (string, error) {
	commitA, err := a.commit(refA)
	if err != nil {
		return "", err
	}
	commitB, err := a.commit(refB)
	if err != nil {
		return "", err
	}
	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return "", fmt.Errorf("merge base %s..%s: %w", refA, refB, err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("merge base %s..%s: no common ancestor", refA, refB)
	}
	return bases[0].Hash.String(), nil
}

// IsAncestor reports whether refA is an ancestor of (or equal to) refB.
func (a *Adapter) IsAncestor(refA, refB string) (bool, error) {
	commitA, err := a.commit(refA)
	if err != nil {
		return false, err
	}
	commitB, err := a.commit(refB)
	if err != nil {
		return false, err
	}
	ok, err := commitA.IsAncestor(commitB)
	if err != nil {
		return false, fmt.Errorf("is ancestor %s %s: %w", refA, refB, err)
	}
	return ok, nil
}

// DiffNameStatus returns the Added/Modified/Deleted/Renamed entries
// between two refs' trees, the input to the writer's incremental sync.
func (a *Adapter) DiffNameStatus(fromRef, toRef string) ([]Change, error) {
	fromCommit, err := a.commit(fromRef)
	if err != nil {
		return nil, err
	}
	toCommit, err := a.commit(toRef)
	if err != nil {
		return nil, err
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("from tree %s: %w", fromRef, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("to tree %s: %w", toRef, err)
	}
	diff, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diff tree %s..%s: %w", fromRef, toRef, err)
	}
	return namesStatusFromPatch(diff), nil
}

func namesStatusFromPatch(changes object.Changes) []Change {
	var added, deleted []changeEntry
	var out []Change
	for _, c := range changes {
		action, err := c.Action()
		if err != nil {
			continue
		}
		switch action {
		case merkletrie.Insert:
			added = append(added, changeEntry{path: c.To.Name, blob: c.To.TreeEntry.Hash.String()})
		case merkletrie.Delete:
			deleted = append(deleted, changeEntry{path: c.From.Name, blob: c.From.TreeEntry.Hash.String()})
		default:
			out = append(out, Change{Kind: Modified, Path: c.To.Name})
		}
	}
	out = append(out, detectRenames(added, deleted)...)
	return out
}

type changeEntry struct {
	path string
	blob string
}

// detectRenames pairs deleted/added entries that share an identical
// blob hash into Renamed changes, leaving any unmatched entries as
// plain Added/Deleted.
func detectRenames(added, deleted []changeEntry) []Change {
	byBlob := map[string]changeEntry{}
	for _, d := range deleted {
		byBlob[d.blob] = d
	}
	matchedDeletes := map[string]bool{}
	var out []Change
	for _, add := range added {
		if old, ok := byBlob[add.blob]; ok && !matchedDeletes[old.path] {
			out = append(out, Change{Kind: Renamed, Path: add.path, OldPath: old.path})
			matchedDeletes[old.path] = true
			continue
		}
		out = append(out, Change{Kind: Added, Path: add.path})
	}
	for _, d := range deleted {
		if !matchedDeletes[d.path] {
			out = append(out, Change{Kind: Deleted, Path: d.path})
		}
	}
	return out
}

// EnsureWorktree materializes ref into a dedicated worktree directory
// under baseDir, cloning from the local repository if it doesn't exist
// yet and checking out ref either way. Returns the worktree path.
func (a *Adapter) EnsureWorktree(baseDir, ref string) (string, error) {
	path := filepath.Join(baseDir, sanitizeRefForPath(ref))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("vcs.ensure_worktree.clone", "ref", ref, "path", path)
		cloned, err := git.PlainClone(path, false, &git.CloneOptions{URL: a.root})
		if err != nil {
			return "", fmt.Errorf("clone worktree for %s: %w", ref, err)
		}
		wt, err := cloned.Worktree()
		if err != nil {
			return "", fmt.Errorf("worktree handle for %s: %w", ref, err)
		}
		if err := checkoutRef(wt, ref); err != nil {
			return "", err
		}
		return path, nil
	}
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("open existing worktree %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree handle for %s: %w", ref, err)
	}
	if err := checkoutRef(wt, ref); err != nil {
		return "", err
	}
	return path, nil
}

func checkoutRef(wt *git.Worktree, ref string) error {
	err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(ref)})
	if err != nil {
		err = wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(ref)})
	}
	if err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

func sanitizeRefForPath(ref string) string {
	out := make([]byte, len(ref))
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if c == '/' || c == '\\' || c == ':' {
			out[i] = '_'
			continue
		}
		out[i] = c
	}
	return string(out)
}
