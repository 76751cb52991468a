package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/signalridge/cruxe/internal/config"
	"github.com/signalridge/cruxe/internal/lifecycle"
	"github.com/signalridge/cruxe/internal/query"
	"github.com/signalridge/cruxe/internal/tools"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("cruxe", version)
		os.Exit(0)
	}

	if len(os.Args) >= 2 && os.Args[1] == "cli" {
		os.Exit(runCLI(os.Args[2:]))
	}

	cfg, err := config.Load(os.Getenv("CRUXE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	srv, router, err := newServer(cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer router.CloseAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
	if runErr != nil {
		slog.Error("server exited", "err", runErr)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newServer wires a config into an open lifecycle.Router, a Syncer
// bound to it, and an MCP/CLI tools.Server bound to both.
func newServer(cfg *config.Config) (*tools.Server, *lifecycle.Router, error) {
	router, err := lifecycle.NewRouter(cfg.DataDir, cfg.WorkspaceCap, cfg.AllowedRoots, cfg.AutoDiscover)
	if err != nil {
		return nil, nil, fmt.Errorf("open router: %w", err)
	}

	worktreeDir := filepath.Join(cfg.DataDir, "worktrees")
	syncer := &lifecycle.Syncer{Router: router, WorktreeDir: worktreeDir}

	policy := query.PolicyConfig{
		Mode:                 query.PolicyMode(cfg.PolicyMode),
		AllowRequestOverride: true,
		AllowedOverrideModes: []query.PolicyMode{query.PolicyStrict, query.PolicyBalanced, query.PolicyAuditOnly},
	}

	srv := tools.NewServer(router, syncer, worktreeDir, policy)
	return srv, router, nil
}

func runCLI(args []string) int {
	raw := false
	var positional []string
	for _, a := range args {
		switch a {
		case "--raw":
			raw = true
		default:
			positional = append(positional, a)
		}
	}

	cfg, err := config.Load(os.Getenv("CRUXE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	setupLogging(cfg)

	srv, router, err := newServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer router.CloseAll()

	if len(positional) == 0 || positional[0] == "--help" || positional[0] == "-h" {
		fmt.Fprintf(os.Stderr, "Usage: cruxe cli [--raw] <tool_name> [json_args]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n  --raw    Print full JSON output (default: human-friendly summary)\n\n")
		fmt.Fprintf(os.Stderr, "Available tools:\n  %s\n", strings.Join(srv.ToolNames(), "\n  "))
		return 0
	}

	toolName := positional[0]
	var argsJSON json.RawMessage
	if len(positional) > 1 {
		argsJSON = json.RawMessage(positional[1])
	}

	result, err := srv.CallTool(context.Background(), toolName, argsJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var text string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}

	if result.IsError {
		fmt.Fprintf(os.Stderr, "error: %s\n", text)
		return 1
	}

	if raw {
		printRawJSON(text)
		return 0
	}

	printSummary(toolName, text)
	return 0
}

// printRawJSON pretty-prints JSON text to stdout.
func printRawJSON(text string) {
	var buf json.RawMessage
	if json.Unmarshal([]byte(text), &buf) == nil {
		if pretty, err := json.MarshalIndent(buf, "", "  "); err == nil {
			fmt.Println(string(pretty))
			return
		}
	}
	fmt.Println(text)
}

// printSummary prints a human-friendly summary of a tool result. Every
// tool returns the same protocol envelope plus a "results"/"items" list
// or a handful of scalar fields, so one generic renderer covers all
// sixteen tools rather than one per-tool formatter.
func printSummary(toolName, text string) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		fmt.Println(text)
		return
	}

	fmt.Printf("%s  ref=%v\n", toolName, data["ref"])

	if results, ok := data["results"].([]any); ok {
		fmt.Printf("%d result(s)\n", len(results))
		for _, r := range results {
			printResultLine(r)
		}
	}
	if items, ok := data["items"].([]any); ok {
		fmt.Printf("%d item(s), ~%v tokens\n", len(items), data["estimated_tokens"])
		for _, r := range items {
			printResultLine(r)
		}
	}

	for _, key := range []string{"status", "job_id", "files_indexed", "symbols_extracted", "database_size_bytes", "unresolved_count", "indexed"} {
		if v, ok := data[key]; ok {
			fmt.Printf("  %s: %v\n", key, v)
		}
	}

	if warnings, ok := data["warnings"].([]any); ok && len(warnings) > 0 {
		fmt.Printf("warnings: %v\n", warnings)
	}
}

func printResultLine(r any) {
	m, ok := r.(map[string]any)
	if !ok {
		fmt.Printf("  %v\n", r)
		return
	}
	name := firstString(m, "name", "path")
	path, _ := m["path"].(string)
	line := jsonInt(m["line_start"])
	fmt.Printf("  %-30s %s:%d\n", name, path, line)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// jsonInt extracts an integer from a JSON-decoded value (float64 or int).
func jsonInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
