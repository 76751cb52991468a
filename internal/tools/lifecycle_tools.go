package tools

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/lifecycle"
)

func (s *Server) registerLifecycleTools() {
	s.addTool(&mcp.Tool{
		Name:        "index_repo",
		Description: "Indexes a workspace for one ref through the same sync as sync_repo: a full bootstrap when the ref has no indexed commit yet or its history was rewritten, an incremental sync otherwise. Rejects a second call while a sync for the same (workspace, ref) is already running.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"ref": {"type": "string"}
			}
		}`),
	}, s.handleIndexRepo)

	s.addTool(&mcp.Tool{
		Name:        "sync_repo",
		Description: "Incrementally syncs a workspace's index for one ref to the current file/VCS state.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"ref": {"type": "string"}
			}
		}`),
	}, s.handleSyncRepo)

	s.addTool(&mcp.Tool{
		Name:        "index_status",
		Description: "Reports the latest/active index job and branch state for one ref.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"ref": {"type": "string"}
			}
		}`),
	}, s.handleIndexStatus)

	s.addTool(&mcp.Tool{
		Name:        "health_check",
		Description: "Database size, orphaned worktree leases and any job interrupted by a prior restart, for one workspace.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"}
			}
		}`),
	}, s.handleHealthCheck)
}

func (s *Server) handleIndexRepo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSync(ctx, req)
}

func (s *Server) handleSyncRepo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runSync(ctx, req)
}

func (s *Server) runSync(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	outcome, err := s.Syncer.Sync(ctx, ws.ProjectID, ws.RootPath, ref, ws.Adapter)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	out := protocolMetadata(ws, ref, nil)
	out["job_id"] = outcome.JobID
	out["files_scanned"] = outcome.FilesScanned
	out["files_indexed"] = outcome.FilesIndexed
	out["symbols_extracted"] = outcome.SymbolsExtracted
	out["ancestry_break"] = outcome.AncestryBreak
	if len(outcome.Warnings) > 0 {
		out["warnings"] = outcome.Warnings
	}
	return jsonResult(out), nil
}

func (s *Server) handleIndexStatus(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	active, err := ws.Store.ActiveJob(ws.ProjectID, ref)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	states, err := ws.Store.ListBranchStates(ws.ProjectID)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	out := protocolMetadata(ws, ref, nil)
	found := false
	for _, st := range states {
		if st.Ref != ref {
			continue
		}
		found = true
		out["status"] = st.Status
		out["file_count"] = st.FileCount
		out["symbol_count"] = st.SymbolCount
		out["last_indexed_commit"] = st.LastIndexedCommit
		out["schema_version"] = st.SchemaVersion
	}
	if !found {
		out["status"] = "not_indexed"
	}
	if active != nil {
		out["active_job"] = map[string]any{
			"job_id":            active.JobID,
			"state":             active.State,
			"files_scanned":     active.FilesScanned,
			"files_indexed":     active.FilesIndexed,
			"symbols_extracted": active.SymbolsExtracted,
			"estimated_pct":     active.EstimatedPct,
		}
	}
	return jsonResult(out), nil
}

func (s *Server) handleHealthCheck(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	handle, err := s.Router.ForProject(ws.ProjectID, ws.RootPath, ws.Adapter != nil)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	report, err := lifecycle.Health(handle, pidIsAlive)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	interruptedJobs := make([]map[string]any, 0, len(report.InterruptedJobs))
	for _, j := range report.InterruptedJobs {
		interruptedJobs = append(interruptedJobs, map[string]any{
			"job_id": j.JobID,
			"ref":    j.Ref,
			"state":  j.State,
		})
	}

	out := protocolMetadata(ws, ws.DefaultRef, nil)
	out["database_size_bytes"] = report.DatabaseSizeBytes
	out["orphaned_lease_count"] = report.OrphanedLeaseCount
	out["ref_count"] = report.RefCount
	out["interrupted_jobs"] = interruptedJobs
	return jsonResult(out), nil
}

// pidIsAlive reports whether pid names a running process, used to tell
// an orphaned worktree lease (owner process gone) from one still held
// by a live sync.
func pidIsAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
