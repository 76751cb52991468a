// Package lifecycle owns everything above one project's own index:
// resolving a filesystem path to a project, bounding how many project
// databases stay open at once, prewarming a startup warmset, running
// syncs under a worktree lease with request collapsing, and reporting
// progress/health. It generalizes the teacher's per-project
// StoreRouter with the LRU eviction, auto-discovery and job-concurrency
// rules the spec's workspace router adds on top.
package lifecycle

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/signalridge/cruxe/internal/ids"
	"github.com/signalridge/cruxe/internal/store"
)

// ErrWorkspaceNotAllowed is returned when an unregistered path falls
// outside every configured allowed root.
var ErrWorkspaceNotAllowed = fmt.Errorf("workspace_not_allowed")

// ErrWorkspaceNotRegistered is returned when auto-discovery is
// disabled and the path has no known project binding.
var ErrWorkspaceNotRegistered = fmt.Errorf("workspace_not_registered")

// projectHandle is one open project's store plus where its index data
// lives on disk.
type projectHandle struct {
	ProjectID string
	Store     *store.Store
	RootPath  string
	DataDir   string
	FTSDir    string
	VectorDir string

	elem *list.Element // position in the router's LRU list
}

// Router resolves workspace paths to projects, bounds how many project
// stores are held open concurrently, and prewarms a startup warmset.
// Path resolution is backed by a small registry database distinct from
// each project's own state.db, since a path must be resolvable to a
// project_id before that project's own database can be opened.
type Router struct {
	dataDir      string
	registry     *store.Store
	allowedRoots []string
	autoDiscover bool
	cap          int

	mu      sync.Mutex
	open    map[string]*projectHandle
	lru     *list.List // front = most recently used
}

// NewRouter opens (creating if needed) the registry database under
// dataDir and prepares a router bounding at most capOpen project
// stores held open at once.
func NewRouter(dataDir string, capOpen int, allowedRoots []string, autoDiscover bool) (*Router, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	registry, err := store.OpenPath(filepath.Join(dataDir, "registry.db"))
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if capOpen <= 0 {
		capOpen = 8
	}
	return &Router{
		dataDir:      dataDir,
		registry:     registry,
		allowedRoots: allowedRoots,
		autoDiscover: autoDiscover,
		cap:          capOpen,
		open:         make(map[string]*projectHandle),
		lru:          list.New(),
	}, nil
}

// Resolve maps a workspace path to a project_id, registering it on
// first sight when auto-discovery is enabled and the path's real path
// falls under one of the router's allowed roots.
func (r *Router) Resolve(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}
	real, err = filepath.Abs(real)
	if err != nil {
		return "", fmt.Errorf("invalid_input: %w", err)
	}

	if known, err := r.registry.GetKnownWorkspace(real); err == nil && known != nil {
		_ = r.registry.UpsertKnownWorkspace(store.KnownWorkspace{
			Path: real, ProjectID: known.ProjectID, AutoDiscovered: known.AutoDiscovered,
		})
		return known.ProjectID, nil
	} else if err != nil && err != store.ErrNotFound {
		return "", fmt.Errorf("internal_error: %w", err)
	}

	if !r.autoDiscover {
		return "", ErrWorkspaceNotRegistered
	}
	if !r.underAllowedRoot(real) {
		return "", ErrWorkspaceNotAllowed
	}

	projectID := ids.ProjectID(real)
	if err := r.registry.UpsertKnownWorkspace(store.KnownWorkspace{
		Path:           real,
		ProjectID:      projectID,
		AutoDiscovered: true,
	}); err != nil {
		return "", fmt.Errorf("internal_error: register workspace: %w", err)
	}
	slog.Info("lifecycle.router.auto_discover", "path", real, "project_id", projectID)
	return projectID, nil
}

func (r *Router) underAllowedRoot(real string) bool {
	if len(r.allowedRoots) == 0 {
		return true
	}
	for _, root := range r.allowedRoots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if real == absRoot || strings.HasPrefix(real, absRoot+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ForProject returns the open handle for projectID, opening its store
// lazily and evicting the least-recently-used handle first if the
// router is already at capacity. rootPath is used only the first time
// a project is opened, to register its project row.
func (r *Router) ForProject(projectID, rootPath string, vcsMode bool) (*projectHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.open[projectID]; ok {
		r.lru.MoveToFront(h.elem)
		return h, nil
	}

	if r.lru.Len() >= r.cap {
		r.evictOldestLocked()
	}

	h, err := r.openLocked(projectID, rootPath, vcsMode)
	if err != nil {
		return nil, err
	}
	h.elem = r.lru.PushFront(h)
	r.open[projectID] = h
	return h, nil
}

func (r *Router) openLocked(projectID, rootPath string, vcsMode bool) (*projectHandle, error) {
	projectDir := filepath.Join(r.dataDir, projectID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	st, err := store.OpenPath(filepath.Join(projectDir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}
	if err := st.UpsertProject(store.Project{
		ProjectID:  projectID,
		RootPath:   rootPath,
		VCSMode:    vcsMode,
		DefaultRef: "working",
	}); err != nil {
		st.Close()
		return nil, fmt.Errorf("register project: %w", err)
	}
	return &projectHandle{
		ProjectID: projectID,
		Store:     st,
		RootPath:  rootPath,
		DataDir:   projectDir,
		FTSDir:    filepath.Join(projectDir, "base"),
		VectorDir: filepath.Join(projectDir, "vectors"),
	}, nil
}

// evictOldestLocked closes and drops the least-recently-used open
// handle. Caller must hold r.mu. This only bounds the in-memory
// handle cache; the project's on-disk data is untouched and will be
// reopened lazily on the next request.
func (r *Router) evictOldestLocked() {
	back := r.lru.Back()
	if back == nil {
		return
	}
	h := back.Value.(*projectHandle)
	if err := h.Store.Close(); err != nil {
		slog.Warn("lifecycle.router.evict_close", "project_id", h.ProjectID, "err", err)
	}
	r.lru.Remove(back)
	delete(r.open, h.ProjectID)
	slog.Info("lifecycle.router.evict", "project_id", h.ProjectID)
}

// EvictWorkspace permanently removes a workspace: closes its open
// handle if any, deletes its on-disk project directory (state.db,
// base/overlay FTS directories, vectors), and clears its registry
// binding. No dangling vectors, overlays or worktrees may remain
// after this call.
func (r *Router) EvictWorkspace(path, projectID string) error {
	r.mu.Lock()
	if h, ok := r.open[projectID]; ok {
		h.Store.Close()
		r.lru.Remove(h.elem)
		delete(r.open, projectID)
	}
	r.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(r.dataDir, projectID)); err != nil {
		return fmt.Errorf("internal_error: remove project data: %w", err)
	}
	if err := r.registry.DeleteKnownWorkspace(path); err != nil && err != store.ErrNotFound {
		return fmt.Errorf("internal_error: clear workspace binding: %w", err)
	}
	return nil
}

// CloseAll closes every open project store plus the registry.
func (r *Router) CloseAll() {
	r.mu.Lock()
	for _, h := range r.open {
		h.Store.Close()
	}
	r.open = make(map[string]*projectHandle)
	r.lru.Init()
	r.mu.Unlock()
	r.registry.Close()
}
