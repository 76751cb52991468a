package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vcs"
)

// HealthReport answers health_check for one project.
type HealthReport struct {
	ProjectID             string
	DatabaseSizeBytes     int64
	OrphanedLeaseCount    int
	InterruptedJobs       []store.IndexJob
	RefCount              int
}

// Health runs the health_check aggregation for one open project
// handle: database size, orphaned worktree leases, and any job left
// interrupted by a prior process restart.
func Health(handle *projectHandle, isAlivePID func(int) bool) (*HealthReport, error) {
	size, err := handle.Store.DatabaseSizeBytes()
	if err != nil {
		return nil, err
	}

	orphaned, err := handle.Store.OrphanedLeases(isAlivePID)
	if err != nil {
		return nil, err
	}

	interrupted, err := RecoverInterrupted(handle.Store, handle.ProjectID)
	if err != nil {
		return nil, err
	}

	branches, err := handle.Store.ListBranchStates(handle.ProjectID)
	if err != nil {
		return nil, err
	}

	return &HealthReport{
		ProjectID:          handle.ProjectID,
		DatabaseSizeBytes:  size,
		OrphanedLeaseCount: len(orphaned),
		InterruptedJobs:    interrupted,
		RefCount:           len(branches),
	}, nil
}

// PrewarmWarmset opens and syncs every workspace in entries, bounded by
// a small concurrency cap so a large warmset doesn't stall its caller.
// cmd/cruxe does not call it. Each entry is (projectID,
// rootPath); failures are logged by the caller via the returned error
// slice index rather than aborting the whole warmset.
func PrewarmWarmset(ctx context.Context, router *Router, syncer *Syncer, entries []WarmsetEntry) []error {
	errs := make([]error, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if _, err := router.ForProject(e.ProjectID, e.RootPath, e.VCSMode); err != nil {
				errs[i] = err
				return nil
			}
			if _, err := syncer.Sync(gctx, e.ProjectID, e.RootPath, e.Ref, e.Adapter); err != nil {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// WarmsetEntry is one project/ref pair the startup warmset prewarms.
type WarmsetEntry struct {
	ProjectID string
	RootPath  string
	Ref       string
	VCSMode   bool
	Adapter   *vcs.Adapter // nil for a git-less project
}
