package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRouter(t *testing.T, capOpen int, allowedRoots []string, autoDiscover bool) *Router {
	t.Helper()
	dir := t.TempDir()
	r, err := NewRouter(dir, capOpen, allowedRoots, autoDiscover)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	t.Cleanup(r.CloseAll)
	return r
}

func TestResolveAutoDiscoversUnderAllowedRoot(t *testing.T) {
	root := t.TempDir()
	workspace := filepath.Join(root, "proj")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := newTestRouter(t, 8, []string{root}, true)
	id, err := r.Resolve(workspace)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty project id")
	}

	id2, err := r.Resolve(workspace)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if id != id2 {
		t.Fatalf("expected stable project id, got %s then %s", id, id2)
	}
}

func TestResolveRejectsPathOutsideAllowedRoots(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()

	r := newTestRouter(t, 8, []string{allowed}, true)
	if _, err := r.Resolve(outside); err != ErrWorkspaceNotAllowed {
		t.Fatalf("expected ErrWorkspaceNotAllowed, got %v", err)
	}
}

func TestResolveRejectsUnknownPathWithoutAutoDiscovery(t *testing.T) {
	root := t.TempDir()
	r := newTestRouter(t, 8, nil, false)
	if _, err := r.Resolve(root); err != ErrWorkspaceNotRegistered {
		t.Fatalf("expected ErrWorkspaceNotRegistered, got %v", err)
	}
}

func TestForProjectEvictsLeastRecentlyUsedOverCapacity(t *testing.T) {
	r := newTestRouter(t, 2, nil, true)

	h1, err := r.ForProject("p1", "/tmp/p1", false)
	if err != nil {
		t.Fatalf("open p1: %v", err)
	}
	if _, err := r.ForProject("p2", "/tmp/p2", false); err != nil {
		t.Fatalf("open p2: %v", err)
	}
	// Touch p1 so it's most-recently-used, then open a third project;
	// p2 (now least-recently-used) should be evicted, not p1.
	if _, err := r.ForProject("p1", "/tmp/p1", false); err != nil {
		t.Fatalf("re-touch p1: %v", err)
	}
	if _, err := r.ForProject("p3", "/tmp/p3", false); err != nil {
		t.Fatalf("open p3: %v", err)
	}

	r.mu.Lock()
	_, p1Open := r.open["p1"]
	_, p2Open := r.open["p2"]
	_, p3Open := r.open["p3"]
	r.mu.Unlock()

	if !p1Open || p2Open || !p3Open {
		t.Fatalf("expected p1/p3 open and p2 evicted, got p1=%v p2=%v p3=%v", p1Open, p2Open, p3Open)
	}
	_ = h1
}

func TestEvictWorkspaceRemovesProjectData(t *testing.T) {
	root := t.TempDir()
	r := newTestRouter(t, 8, []string{root}, true)

	id, err := r.Resolve(root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := r.ForProject(id, root, false); err != nil {
		t.Fatalf("open project: %v", err)
	}

	if err := r.EvictWorkspace(root, id); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if _, err := os.Stat(filepath.Join(r.dataDir, id)); !os.IsNotExist(err) {
		t.Fatalf("expected project data dir removed, stat err = %v", err)
	}

	if _, err := r.Resolve(root); err != nil {
		t.Fatalf("expected re-discovery after eviction to succeed, got %v", err)
	}
}
