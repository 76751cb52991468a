// Package tools is the MCP/CLI tool dispatch layer: it adapts
// spec §6's external interface onto internal/query, internal/lifecycle,
// internal/store and internal/vcs, and maps internal errors onto the
// canonical CruxeError codes at the response boundary.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/lifecycle"
	"github.com/signalridge/cruxe/internal/query"
	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vcs"
)

// ProtocolVersion is reported on every tool response.
const ProtocolVersion = "1"

// Server wraps the MCP server with every spec §6 tool handler
// registered, mirroring the base module's Server/NewServer/addTool
// constructor-injection shape.
type Server struct {
	mcp *mcp.Server

	Router      *lifecycle.Router
	Syncer      *lifecycle.Syncer
	WorktreeDir string

	VectorModelID      string
	VectorModelVersion string
	Embedder           query.Embedder
	RerankProvider      query.RerankProvider
	Policy              query.PolicyConfig

	handlers map[string]mcp.ToolHandler
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(router *lifecycle.Router, syncer *lifecycle.Syncer, worktreeDir string, policy query.PolicyConfig) *Server {
	srv := &Server{
		Router:      router,
		Syncer:      syncer,
		WorktreeDir: worktreeDir,
		Policy:      policy,
		handlers:    make(map[string]mcp.ToolHandler),
	}

	srv.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "cruxe",
		Version: "0.1.0",
	}, nil)

	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server, for cmd/cruxe's serve mode.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.handlers[tool.Name] = handler
	s.mcp.AddTool(tool, handler)
}

// CallTool invokes a registered tool directly, for cli mode.
func (s *Server) CallTool(ctx context.Context, name string, argsJSON json.RawMessage) (*mcp.CallToolResult, error) {
	h, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("invalid_input: unknown tool %q", name)
	}
	if len(argsJSON) == 0 {
		argsJSON = json.RawMessage(`{}`)
	}
	return h(ctx, &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: name, Arguments: argsJSON}})
}

// ToolNames lists every registered tool, for cli --help.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) registerTools() {
	s.registerSearchTools()
	s.registerContextTools()
	s.registerGraphTools()
	s.registerRefTools()
	s.registerLifecycleTools()
}

// --- workspace resolution ---

// resolvedWorkspace bundles everything a handler needs after resolving
// the workspace argument to a project: the open store handle, an
// optional VCS adapter (nil for a git-less project), and the ref that
// counts as the project's default/base ref.
type resolvedWorkspace struct {
	ProjectID  string
	Store      *store.Store
	RootPath   string
	FTSDir     string
	VectorDir  string
	Adapter    *vcs.Adapter
	DefaultRef string
}

func (s *Server) resolveWorkspace(args map[string]any) (*resolvedWorkspace, error) {
	root := getStringArg(args, "workspace")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("invalid_input: no workspace given and cwd unavailable: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid_input: %w", err)
	}

	projectID, err := s.Router.Resolve(root)
	if err != nil {
		return nil, err
	}

	adapter, err := vcs.Detect(root)
	if err != nil {
		return nil, fmt.Errorf("internal_error: detect vcs: %w", err)
	}

	handle, err := s.Router.ForProject(projectID, root, adapter != nil)
	if err != nil {
		return nil, fmt.Errorf("internal_error: %w", err)
	}

	defaultRef := "working"
	if adapter != nil {
		head, err := adapter.ResolveHead()
		if err == nil && head != "" {
			defaultRef = head
		}
	}

	return &resolvedWorkspace{
		ProjectID:  projectID,
		Store:      handle.Store,
		RootPath:   root,
		FTSDir:     handle.FTSDir,
		VectorDir:  handle.VectorDir,
		Adapter:    adapter,
		DefaultRef: defaultRef,
	}, nil
}

// effectiveRef returns req's ref argument, defaulting to ws's default
// ref when omitted.
func effectiveRef(args map[string]any, ws *resolvedWorkspace) string {
	if ref := getStringArg(args, "ref"); ref != "" {
		return ref
	}
	return ws.DefaultRef
}

// --- protocol metadata ---

func protocolMetadata(ws *resolvedWorkspace, ref string, resp *query.Response) map[string]any {
	m := map[string]any{
		"protocol_version":  ProtocolVersion,
		"ref":               ref,
		"freshness_status":  "fresh",
		"indexing_status":   "ready",
		"schema_status":     "compatible",
	}
	if resp != nil {
		m["result_completeness"] = string(resp.Completeness)
		m["semantic_mode"] = string(resp.Plan.Plan)
		m["semantic_enabled"] = resp.SemanticEnabled
		m["semantic_triggered"] = resp.SemanticTriggered
		m["semantic_skipped_reason"] = resp.SemanticSkippedReason
		m["semantic_fallback"] = resp.SemanticFallback
		m["semantic_degraded"] = resp.SemanticFallback
		m["semantic_limit_used"] = resp.Budgets.SemanticLimitUsed
		m["lexical_fanout_used"] = resp.Budgets.LexicalFanoutUsed
		m["semantic_fanout_used"] = resp.Budgets.SemanticFanoutUsed
		m["semantic_budget_exhausted"] = resp.SemanticBudgetExhausted
		m["query_plan_executed"] = string(resp.Plan.Plan)
		m["suppressed_duplicate_count"] = resp.SuppressedDuplicateCount
		m["policy_mode"] = string(resp.PolicyMode)
		m["policy_blocked_count"] = resp.PolicyBlockedCount
		m["policy_redacted_count"] = resp.PolicyRedactedCount
		m["safety_limit_applied"] = resp.SafetyLimitApplied
		if len(resp.SuggestedNextActions) > 0 {
			m["suggested_next_actions"] = resp.SuggestedNextActions
		}
		if len(resp.Warnings) > 0 {
			m["warnings"] = resp.Warnings
		}
	} else {
		m["result_completeness"] = "complete"
	}
	return m
}

// --- helpers shared by every handler ---

func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult(mapError(fmt.Errorf("internal_error: marshal response: %w", err)))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

func errResult(ce *CruxeError) *mcp.CallToolResult {
	b, _ := json.MarshalIndent(ce, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: true,
	}
}

func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid_input: invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	v, ok := args[key].(string)
	if !ok {
		return ""
	}
	return v
}

func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getFloatArg(args map[string]any, key string, defaultVal float64) float64 {
	f, ok := args[key].(float64)
	if !ok {
		return defaultVal
	}
	return f
}

func getBoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
