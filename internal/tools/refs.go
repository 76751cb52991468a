package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerRefTools() {
	s.addTool(&mcp.Tool{
		Name:        "list_refs",
		Description: "Refs known to a workspace: every local VCS branch and tag, or the single working-tree ref for a git-less project.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"}
			}
		}`),
	}, s.handleListRefs)

	s.addTool(&mcp.Tool{
		Name:        "switch_ref",
		Description: "Validates a ref resolves against the workspace's VCS history (or equals \"working\" for a git-less project) and reports its indexing status. Each tool call is independently scoped to a ref; this does not persist server-side state.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"ref": {"type": "string"}
			},
			"required": ["ref"]
		}`),
	}, s.handleSwitchRef)
}

func (s *Server) handleListRefs(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	var refs []string
	if ws.Adapter != nil {
		refs, err = ws.Adapter.ListRefs()
		if err != nil {
			return errResult(mapError(fmt.Errorf("internal_error: list refs: %w", err))), nil
		}
	} else {
		refs = []string{"working"}
	}

	states, err := ws.Store.ListBranchStates(ws.ProjectID)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: list branch states: %w", err))), nil
	}
	indexed := make(map[string]bool, len(states))
	for _, st := range states {
		indexed[st.Ref] = true
	}

	items := make([]map[string]any, 0, len(refs))
	for _, ref := range refs {
		items = append(items, map[string]any{
			"ref":     ref,
			"indexed": indexed[ref],
			"default": ref == ws.DefaultRef,
		})
	}

	out := protocolMetadata(ws, ws.DefaultRef, nil)
	out["results"] = items
	return jsonResult(out), nil
}

func (s *Server) handleSwitchRef(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := getStringArg(args, "ref")
	if ref == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "ref is required"}), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	if ws.Adapter != nil && ref != "working" {
		if _, err := ws.Adapter.ResolveRef(ref); err != nil {
			return errResult(&CruxeError{Code: CodeRefNotIndexed, Message: fmt.Sprintf("ref %q does not resolve: %v", ref, err)}), nil
		}
	} else if ws.Adapter == nil && ref != "working" {
		return errResult(&CruxeError{Code: CodeRefNotIndexed, Message: "project has no VCS, only \"working\" is valid"}), nil
	}

	states, err := ws.Store.ListBranchStates(ws.ProjectID)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: list branch states: %w", err))), nil
	}
	indexed := false
	for _, st := range states {
		if st.Ref == ref {
			indexed = true
			break
		}
	}

	out := protocolMetadata(ws, ref, nil)
	out["indexed"] = indexed
	if !indexed {
		out["indexing_status"] = "not_indexed"
		out["suggested_next_actions"] = []string{"call sync_repo with this ref"}
	}
	return jsonResult(out), nil
}
