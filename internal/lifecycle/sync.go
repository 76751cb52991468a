package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vcs"
	"github.com/signalridge/cruxe/internal/writer"
)

// ErrSyncInProgress mirrors the spec's sync_in_progress error code,
// returned when a second writer targets the same (project, ref) while
// one is already running.
var ErrSyncInProgress = fmt.Errorf("sync_in_progress")

// Syncer runs index_repo/sync_repo requests: it acquires the worktree
// lease, materializes the ref (for VCS-mode projects), invokes the
// writer's sync, and releases the lease, collapsing concurrent
// requests for the same (project, ref) with singleflight so a caller
// that fires sync_repo twice in a race gets the same in-flight result
// rather than a rejected second job.
type Syncer struct {
	Router      *Router
	WorktreeDir string // base directory EnsureWorktree materializes checkouts under

	group singleflight.Group
}

// SyncOutcome wraps the writer's own Outcome with the lease/worktree
// bookkeeping the lifecycle layer adds.
type SyncOutcome struct {
	*writer.Outcome
	Ref string
}

// Sync runs one index/sync request for (projectID, ref) against the
// repo rooted at rootPath. adapter is nil for a git-less project,
// which skips worktree materialization and diff-based incremental
// sync (every call becomes a full bootstrap).
func (s *Syncer) Sync(ctx context.Context, projectID, rootPath, ref string, adapter *vcs.Adapter) (*SyncOutcome, error) {
	key := projectID + "::" + ref
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.syncOnce(ctx, projectID, rootPath, ref, adapter)
	})
	if err != nil {
		return nil, err
	}
	return result.(*SyncOutcome), nil
}

func (s *Syncer) syncOnce(ctx context.Context, projectID, rootPath, ref string, adapter *vcs.Adapter) (*SyncOutcome, error) {
	handle, err := s.Router.ForProject(projectID, rootPath, adapter != nil)
	if err != nil {
		return nil, fmt.Errorf("internal_error: %w", err)
	}

	active, err := handle.Store.ActiveJob(projectID, ref)
	if err != nil {
		return nil, fmt.Errorf("internal_error: %w", err)
	}
	if active != nil {
		return nil, ErrSyncInProgress
	}

	worktreeRoot := rootPath
	if adapter != nil && ref != "" && ref != "working" {
		if err := handle.Store.AcquireLease(projectID, ref, "", 0); err != nil {
			return nil, fmt.Errorf("internal_error: acquire lease: %w", err)
		}
		defer handle.Store.ReleaseLease(projectID, ref)

		path, err := adapter.EnsureWorktree(filepath.Join(s.WorktreeDir, projectID), ref)
		if err != nil {
			return nil, fmt.Errorf("merge_base_failed: %w", err)
		}
		worktreeRoot = path
	}

	w := &writer.Writer{
		Store:  handle.Store,
		FTSDir: handle.FTSDir,
		VCS:    adapter,
	}
	defer w.Close()

	out, err := w.Sync(ctx, writer.Request{
		ProjectID:    projectID,
		Ref:          ref,
		WorktreeRoot: worktreeRoot,
	})
	if err != nil {
		return nil, err
	}
	return &SyncOutcome{Outcome: out, Ref: ref}, nil
}

// RecoverInterrupted scans every ref this project has ever published
// for a job a prior process left running or validating (a restart
// mid-sync, since a clean shutdown always reaches published/failed/
// rolled_back). Surfaced to health_check/index_status as an
// interrupted_recovery_report until the caller re-runs sync_repo for
// that ref.
func RecoverInterrupted(st *store.Store, projectID string) ([]store.IndexJob, error) {
	branches, err := st.ListBranchStates(projectID)
	if err != nil {
		return nil, fmt.Errorf("internal_error: %w", err)
	}

	var interrupted []store.IndexJob
	for _, b := range branches {
		active, err := st.ActiveJob(projectID, b.Ref)
		if err != nil {
			return nil, fmt.Errorf("internal_error: %w", err)
		}
		if active != nil && (active.State == store.JobStateRunning || active.State == store.JobStateValidating) {
			interrupted = append(interrupted, *active)
		}
	}
	return interrupted, nil
}
