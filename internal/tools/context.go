package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/query"
	"github.com/signalridge/cruxe/internal/store"
)

func (s *Server) registerContextTools() {
	s.addTool(&mcp.Tool{
		Name:        "get_code_context",
		Description: "Token-budgeted context pack for a query: breadth (signatures across many hits) or depth (full bodies of fewer hits), never exceeding max_tokens.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"query": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"max_tokens": {"type": "integer", "description": "Token budget, default 4000"},
				"strategy": {"type": "string", "enum": ["breadth", "depth"]},
				"language": {"type": "string"}
			},
			"required": ["query"]
		}`),
	}, s.handleGetCodeContext)

	s.addTool(&mcp.Tool{
		Name:        "get_symbol_hierarchy",
		Description: "Cycle-safe ancestor or descendant chain for a symbol over parent_symbol_id links (enclosing functions for ancestors, functions nested inside it for descendants). Only a function nested in another function has a parent link; types and their members have none.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"direction": {"type": "string", "enum": ["ancestors", "descendants"]}
			},
			"required": ["symbol_name", "direction"]
		}`),
	}, s.handleGetSymbolHierarchy)

	s.addTool(&mcp.Tool{
		Name:        "find_related_symbols",
		Description: "Symbols related to a given one, prioritized same_file, then same_module, then imported.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"scope": {"type": "string", "enum": ["file", "module", "package"]},
				"limit": {"type": "integer"}
			},
			"required": ["symbol_name"]
		}`),
	}, s.handleFindRelatedSymbols)
}

func (s *Server) handleGetCodeContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	q := getStringArg(args, "query")
	if q == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "query is required"}), nil
	}
	maxTokens := getIntArg(args, "max_tokens", 4000)
	strategy := query.StrategyBreadth
	if getStringArg(args, "strategy") == "depth" {
		strategy = query.StrategyDepth
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
		Limit:      200,
	})
	if err != nil {
		return errResult(mapError(err)), nil
	}

	packed := query.PackContext(resp.Results, maxTokens, strategy)

	out := protocolMetadata(ws, ref, resp)
	out["result_completeness"] = string(packed.Completeness)
	out["estimated_tokens"] = packed.EstimatedTokens
	out["items"] = renderResults(packed.Results, strategy == query.StrategyBreadth)
	if packed.Completeness == query.CompletenessTruncated {
		out["suggested_next_actions"] = []string{"raise max_tokens and retry"}
	}
	return jsonResult(out), nil
}

func (s *Server) handleGetSymbolHierarchy(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	name := getStringArg(args, "symbol_name")
	direction := getStringArg(args, "direction")
	if name == "" || (direction != "ancestors" && direction != "descendants") {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "symbol_name and direction (ancestors|descendants) are required"}), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	root, err := findSymbolByNameAndPath(ws.Store, ws.ProjectID, ref, name, getStringArg(args, "path"))
	if err != nil {
		return errResult(mapError(err)), nil
	}

	var chain []store.Symbol
	if direction == "ancestors" {
		chain, err = ancestorChain(ws.Store, ws.ProjectID, ref, *root)
	} else {
		chain, err = descendantChain(ws.Store, ws.ProjectID, ref, *root)
	}
	if err != nil {
		return errResult(mapError(err)), nil
	}

	out := protocolMetadata(ws, ref, nil)
	out["root"] = symbolToMap(*root)
	out["direction"] = direction
	items := make([]map[string]any, 0, len(chain))
	for _, sym := range chain {
		items = append(items, symbolToMap(sym))
	}
	out["results"] = items
	return jsonResult(out), nil
}

func (s *Server) handleFindRelatedSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	name := getStringArg(args, "symbol_name")
	if name == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "symbol_name is required"}), nil
	}
	scope := getStringArg(args, "scope")
	if scope == "" {
		scope = "file"
	}
	limit := getIntArg(args, "limit", 20)

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	root, err := findSymbolByNameAndPath(ws.Store, ws.ProjectID, ref, name, getStringArg(args, "path"))
	if err != nil {
		return errResult(mapError(err)), nil
	}

	related, err := relatedSymbols(ws.Store, ws.ProjectID, ref, *root, scope, limit)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	out := protocolMetadata(ws, ref, nil)
	out["root"] = symbolToMap(*root)
	items := make([]map[string]any, 0, len(related))
	for _, r := range related {
		m := symbolToMap(r.sym)
		m["relation"] = r.relation
		items = append(items, m)
	}
	out["results"] = items
	return jsonResult(out), nil
}

func findSymbolByNameAndPath(st *store.Store, projectID, ref, name, path string) (*store.Symbol, error) {
	candidates, err := st.SymbolsByName(projectID, ref, name)
	if err != nil {
		return nil, fmt.Errorf("internal_error: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("not_found: no symbol named %q", name)
	}
	if path != "" {
		for _, c := range candidates {
			if c.Path == path {
				return &c, nil
			}
		}
		return nil, fmt.Errorf("not_found: no symbol named %q at path %q", name, path)
	}
	if len(candidates) > 1 {
		return nil, fmt.Errorf("ambiguous_symbol: %d symbols named %q, pass path to disambiguate", len(candidates), name)
	}
	return &candidates[0], nil
}

// ancestorChain walks ParentSymbolID upward, stopping at a cycle or
// the root (empty parent id).
func ancestorChain(st *store.Store, projectID, ref string, start store.Symbol) ([]store.Symbol, error) {
	var out []store.Symbol
	seen := map[string]bool{start.SymbolStableID: true}
	cur := start
	for cur.ParentSymbolID != "" {
		if seen[cur.ParentSymbolID] {
			break
		}
		parent, err := st.GetSymbol(projectID, ref, cur.ParentSymbolID)
		if err != nil || parent == nil {
			break
		}
		out = append(out, *parent)
		seen[parent.SymbolStableID] = true
		cur = *parent
	}
	return out, nil
}

// descendantChain does a cycle-safe breadth-first walk of SymbolChildren.
func descendantChain(st *store.Store, projectID, ref string, start store.Symbol) ([]store.Symbol, error) {
	var out []store.Symbol
	seen := map[string]bool{start.SymbolStableID: true}
	queue := []string{start.SymbolStableID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := st.SymbolChildren(projectID, ref, id)
		if err != nil {
			return nil, fmt.Errorf("internal_error: %w", err)
		}
		for _, c := range children {
			if seen[c.SymbolStableID] {
				continue
			}
			seen[c.SymbolStableID] = true
			out = append(out, c)
			queue = append(queue, c.SymbolStableID)
		}
	}
	return out, nil
}

type relatedSymbol struct {
	sym      store.Symbol
	relation string
}

// relatedSymbols prioritizes same_file, then same_module (same parent
// directory), then imported (reachable via an edge from root), up to
// limit total results.
func relatedSymbols(st *store.Store, projectID, ref string, root store.Symbol, scope string, limit int) ([]relatedSymbol, error) {
	var out []relatedSymbol

	sameFile, err := st.SymbolsByPath(projectID, ref, root.Path)
	if err != nil {
		return nil, err
	}
	for _, sym := range sameFile {
		if sym.SymbolStableID == root.SymbolStableID {
			continue
		}
		out = append(out, relatedSymbol{sym, "same_file"})
		if len(out) >= limit {
			return out, nil
		}
	}

	if scope == "module" || scope == "package" {
		dir := filepath.Dir(root.Path)
		files, err := st.ListFiles(projectID, ref)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.Path == root.Path || filepath.Dir(f.Path) != dir {
				continue
			}
			symbols, err := st.SymbolsByPath(projectID, ref, f.Path)
			if err != nil {
				continue
			}
			for _, sym := range symbols {
				out = append(out, relatedSymbol{sym, "same_module"})
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}

	edges, err := st.EdgesFrom(projectID, ref, root.SymbolStableID, "imports")
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if e.ToSymbolID == "" {
			continue
		}
		sym, err := st.GetSymbol(projectID, ref, e.ToSymbolID)
		if err != nil || sym == nil {
			continue
		}
		out = append(out, relatedSymbol{*sym, "imported"})
		if len(out) >= limit {
			break
		}
	}

	return out, nil
}
