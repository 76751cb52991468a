package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/fts"
	"github.com/signalridge/cruxe/internal/query"
)

func (s *Server) registerSearchTools() {
	s.addTool(&mcp.Tool{
		Name:        "search_code",
		Description: "Hybrid retrieval across symbols, snippets and files: lexical BM25-weighted matching fused with optional semantic search, reranked and deduped. Rejects a kind filter (role-level filtering only).",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search text"},
				"workspace": {"type": "string", "description": "Workspace path. Defaults to the current directory."},
				"ref": {"type": "string", "description": "VCS ref to search. Defaults to the project's current ref."},
				"limit": {"type": "integer", "description": "Max results (default 20)"},
				"language": {"type": "string", "description": "Restrict to one language"},
				"role": {"type": "string", "description": "Restrict to a role, e.g. type, callable"},
				"ranking_explain_level": {"type": "string", "enum": ["none", "summary", "full"]},
				"compact": {"type": "boolean"},
				"freshness_policy": {"type": "string", "enum": ["best_effort", "strict"]},
				"semantic_ratio": {"type": "number"},
				"confidence_threshold": {"type": "number"},
				"kind": {"type": "string", "description": "Rejected: search_code is role-level only, use locate_symbol for kind filtering"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchCode)

	s.addTool(&mcp.Tool{
		Name:        "locate_symbol",
		Description: "Definition-first symbol lookup, ranking the definition ahead of call sites. Intersects kind and role when both are given.",
		InputSchema: []byte(`{
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"workspace": {"type": "string"},
				"ref": {"type": "string"},
				"kind": {"type": "string"},
				"role": {"type": "string"},
				"ranking_explain_level": {"type": "string", "enum": ["none", "summary", "full"]},
				"compact": {"type": "boolean"}
			},
			"required": ["name"]
		}`),
	}, s.handleLocateSymbol)
}

func (s *Server) handleSearchCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	if _, ok := args["kind"]; ok {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "search_code does not accept kind; it is role-level only, use locate_symbol"}), nil
	}

	q := getStringArg(args, "query")
	if q == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "query is required"}), nil
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
		Limit:      getIntArg(args, "limit", 20),
		RoleFilter: getStringArg(args, "role"),
	})
	if err != nil {
		return errResult(mapError(err)), nil
	}

	out := protocolMetadata(ws, ref, resp)
	out["results"] = renderResults(resp.Results, getBoolArg(args, "compact"))
	return jsonResult(out), nil
}

func (s *Server) handleLocateSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	name := getStringArg(args, "name")
	if name == "" {
		return errResult(&CruxeError{Code: CodeInvalidInput, Message: "name is required"}), nil
	}

	ws, err := s.resolveWorkspace(args)
	if err != nil {
		return errResult(mapError(err)), nil
	}
	ref := effectiveRef(args, ws)

	symbols, err := ws.Store.SymbolsByName(ws.ProjectID, ref, name)
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: %w", err))), nil
	}

	wantKind := getStringArg(args, "kind")
	wantRole := getStringArg(args, "role")

	results := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		if wantKind != "" && sym.Kind != wantKind {
			continue
		}
		if wantRole != "" && sym.Role != wantRole {
			continue
		}
		results = append(results, symbolToMap(sym))
	}
	// Every row SymbolsByName returns is itself a definition (call/usage
	// sites live as SymbolEdge rows and never populate the symbols
	// table), and SymbolsByName already orders by path/line_start, so no
	// further definition-first sort is needed here.

	out := protocolMetadata(ws, ref, nil)
	out["results"] = results
	return jsonResult(out), nil
}

// pipelineFor builds a query.Pipeline for one resolved workspace. The
// full-text index is opened per call since it's a small bleve handle
// keyed by the project's base FTS directory; the router already bounds
// how many project stores (and thus how many of these) stay open via
// its LRU.
func (s *Server) pipelineFor(ws *resolvedWorkspace) (*query.Pipeline, error) {
	idx, err := fts.Open(ws.FTSDir)
	if err != nil {
		return nil, fmt.Errorf("internal_error: open fts index: %w", err)
	}

	p := &query.Pipeline{
		FTS:            idx,
		Store:          ws.Store,
		ProjectID:      ws.ProjectID,
		RerankProvider: s.RerankProvider,
		Policy:         s.Policy,
	}
	if s.Embedder != nil {
		p.Embedder = s.Embedder
		p.VectorOpener = s.vectorOpener(ws)
	}
	return p, nil
}
