package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/query"
	"github.com/signalridge/cruxe/internal/store"
)

const maxCallGraphDepth = 5

func (s *Server) registerGraphTools() {
	s.addTool(&mcp.Tool{
		Name:        "find_references",
		Description: "Edges referencing a symbol by name, plus the count of unresolved (to_symbol_id IS NULL) edges matching that name.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"symbol_name": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"kind": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["symbol_name"]
		}`),
	}, s.handleFindReferences)

	s.addTool(&mcp.Tool{
		Name:        "get_call_graph",
		Description: "Caller or callee call graph from a symbol, cycle-safe, depth clamped to 5.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"direction": {"type": "string", "enum": ["callers", "callees", "both"]},
				"depth": {"type": "integer"},
				"limit": {"type": "integer"}
			},
			"required": ["symbol"]
		}`),
	}, s.handleGetCallGraph)

	s.addTool(&mcp.Tool{
		Name:        "get_file_outline",
		Description: "Top-level or full symbol outline of one file.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"depth": {"type": "string", "enum": ["top", "all"]}
			},
			"required": ["path"]
		}`),
	}, s.handleGetFileOutline)

	s.addTool(&mcp.Tool{
		Name:        "diff_context",
		Description: "Added/modified/deleted files between two refs, computed by comparing indexed paths and their content_hash. Symbols are not diffed.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"base_ref": {"type": "string"},
				"head_ref": {"type": "string"},
				"path_filter": {"type": "string"},
				"workspace": {"type": "string"},
				"limit": {"type": "integer"}
			}
		}`),
	}, s.handleDiffContext)

	s.addTool(&mcp.Tool{
		Name:        "explain_ranking",
		Description: "Final rerank score, seen channels and rerank-fallback flag for one result at a given query and location. No per-signal score breakdown is returned.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"query": {"type": "string"},
				"result_path": {"type": "string"},
				"result_line_start": {"type": "integer"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"language": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["query", "result_path", "result_line_start"]
		}`),
	}, s.handleExplainRanking)
}

func (s *Server) handleFindReferences(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	name := getStringArg(args, "symbol_name")
	if name == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "symbol_name is required"}), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	edges, err := ws.Store.EdgesToName(ws.ProjectID, ref, name, "calls")
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}
	unresolved, err := ws.Store.UnresolvedCount(ws.ProjectID, ref, name)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	limit := getIntArg(args, "limit", 50)
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}

	out := protocolMetadata(ws, ref, nil)
	out["unresolved_count"] = unresolved
	out["results"] = edgesToMaps(edges)
	return jsonResult(out), nil
}

func (s *Server) handleGetCallGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	name := getStringArg(args, "symbol")
	if name == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "symbol is required"}), nil
	}
	direction := getStringArg(args, "direction")
	if direction == "" {
		direction = "callees"
	}
	depth := getIntArg(args, "depth", 2)
	var warnings []string
	if depth > maxCallGraphDepth {
		depth = maxCallGraphDepth
		warnings = append(warnings, fmt.Sprintf("depth clamped to %d", maxCallGraphDepth))
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	root, err := findSymbolByNameAndPath(ws.Store, ws.ProjectID, ref, name, "")
	if err != nil {
		return errResult(mapError(err)), nil
	}

	hops, err := callGraphHops(ws.Store, ws.ProjectID, ref, *root, direction, depth)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	out := protocolMetadata(ws, ref, nil)
	out["root"] = symbolToMap(*root)
	out["direction"] = direction
	out["hops"] = hops
	if len(warnings) > 0 {
		out["warnings"] = warnings
	}
	return jsonResult(out), nil
}

// callGraphHops performs a cycle-safe BFS over calls edges up to depth
// hops, in the given direction ("callers" walks EdgesTo, "callees"
// walks EdgesFrom; "both" walks both at every hop).
func callGraphHops(st *store.Store, projectID, ref string, root store.Symbol, direction string, depth int) ([]map[string]any, error) {
	seen := map[string]bool{root.SymbolStableID: true}
	frontier := []string{root.SymbolStableID}
	var hops []map[string]any

	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		var next []string
		var nodes []map[string]any
		for _, id := range frontier {
			if direction == "callees" || direction == "both" {
				edges, err := st.EdgesFrom(projectID, ref, id, "calls")
				if err != nil {
					return nil, err
				}
				for _, e := range edges {
					if e.ToSymbolID == "" || seen[e.ToSymbolID] {
						continue
					}
					seen[e.ToSymbolID] = true
					sym, err := st.GetSymbol(projectID, ref, e.ToSymbolID)
					if err != nil || sym == nil {
						continue
					}
					nodes = append(nodes, symbolToMap(*sym))
					next = append(next, sym.SymbolStableID)
				}
			}
			if direction == "callers" || direction == "both" {
				edges, err := st.EdgesTo(projectID, ref, id, "calls")
				if err != nil {
					return nil, err
				}
				for _, e := range edges {
					if seen[e.FromSymbolID] {
						continue
					}
					seen[e.FromSymbolID] = true
					sym, err := st.GetSymbol(projectID, ref, e.FromSymbolID)
					if err != nil || sym == nil {
						continue
					}
					nodes = append(nodes, symbolToMap(*sym))
					next = append(next, sym.SymbolStableID)
				}
			}
		}
		if len(nodes) == 0 {
			break
		}
		hops = append(hops, map[string]any{"hop": hop, "nodes": nodes})
		frontier = next
	}
	return hops, nil
}

func (s *Server) handleGetFileOutline(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	path := getStringArg(args, "path")
	if path == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "path is required"}), nil
	}
	depth := getStringArg(args, "depth")
	if depth == "" {
		depth = "top"
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	symbols, err := ws.Store.SymbolsByPath(ws.ProjectID, ref, path)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	items := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		if depth == "top" && sym.ParentSymbolID != "" {
			continue
		}
		items = append(items, symbolToMap(sym))
	}

	out := protocolMetadata(ws, ref, nil)
	out["path"] = path
	out["depth"] = depth
	out["results"] = items
	return jsonResult(out), nil
}

func (s *Server) handleDiffContext(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}

	baseRef := getStringArg(args, "base_ref")
	if baseRef == "" {
		baseRef = ws.DefaultRef
	}
	headRef := getStringArg(args, "head_ref")
	if headRef == "" {
		headRef = ws.DefaultRef
	}
	pathFilter := getStringArg(args, "path_filter")

	baseFiles, err := ws.Store.ListFiles(ws.ProjectID, baseRef)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}
	headFiles, err := ws.Store.ListFiles(ws.ProjectID, headRef)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	baseByPath := make(map[string]store.FileRecord, len(baseFiles))
	for _, f := range baseFiles {
		baseByPath[f.Path] = f
	}
	headByPath := make(map[string]store.FileRecord, len(headFiles))
	for _, f := range headFiles {
		headByPath[f.Path] = f
	}

	var added, modified, deleted []string
	for path, h := range headByPath {
		if pathFilter != "" && !pathHasPrefix(path, pathFilter) {
			continue
		}
		b, ok := baseByPath[path]
		if !ok {
			added = append(added, path)
		} else if b.ContentHash != h.ContentHash {
			modified = append(modified, path)
		}
	}
	for path := range baseByPath {
		if pathFilter != "" && !pathHasPrefix(path, pathFilter) {
			continue
		}
		if _, ok := headByPath[path]; !ok {
			deleted = append(deleted, path)
		}
	}

	limit := getIntArg(args, "limit", 0)
	added = limitStrings(added, limit)
	modified = limitStrings(modified, limit)
	deleted = limitStrings(deleted, limit)

	out := protocolMetadata(ws, headRef, nil)
	out["base_ref"] = baseRef
	out["head_ref"] = headRef
	out["added"] = added
	out["modified"] = modified
	out["deleted"] = deleted
	return jsonResult(out), nil
}

func (s *Server) handleExplainRanking(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	q := getStringArg(args, "query")
	resultPath := getStringArg(args, "result_path")
	resultLine := getIntArg(args, "result_line_start", -1)
	if q == "" || resultPath == "" || resultLine < 0 {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "query, result_path and result_line_start are required"}), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	pipeline, err := s.pipelineFor(ws)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	resp, err := pipeline.Execute(ctx, query.Request{
		QueryText:  q,
		Ref:        ref,
		DefaultRef: ws.DefaultRef,
		Limit:      getIntArg(args, "limit", 200),
	})
	if err != nil {
		return errResult(mapError(err)), nil
	}

	for _, r := range resp.Results {
		if r.Path == resultPath && r.LineStart == resultLine {
			out := protocolMetadata(ws, ref, nil)
			out["final_score"] = r.FinalScore
			out["seen_channels"] = r.SeenChannels
			out["rerank_fallback"] = r.RerankFallback
			out["path"] = r.Path
			out["line_start"] = r.LineStart
			return jsonResult(out), nil
		}
	}
	return errResult(&CruxeError{Code: CodeResultNotFound, Message: fmt.Sprintf("no result at %s:%d for that query", resultPath, resultLine)}), nil
}

func edgesToMaps(edges []store.SymbolEdge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		out = append(out, map[string]any{
			"from_symbol_id":  e.FromSymbolID,
			"to_symbol_id":    e.ToSymbolID,
			"to_name":         e.ToName,
			"edge_type":       e.EdgeType,
			"confidence":      e.Confidence,
			"source_location": e.SourceLocation,
			"source_layer":    e.SourceLayer,
		})
	}
	return out
}

func pathHasPrefix(path, prefix string) bool {
	if len(path) < len(prefix) {
		return false
	}
	return path[:len(prefix)] == prefix
}

func limitStrings(ss []string, limit int) []string {
	if limit > 0 && len(ss) > limit {
		return ss[:limit]
	}
	return ss
}
