package extract

import (
	"strings"
	"testing"

	"github.com/signalridge/cruxe/internal/lang"
	"github.com/signalridge/cruxe/internal/parser"
)

func mustExtract(t *testing.T, l lang.Language, src string, relPath string, known KnownFiles) *Result {
	t.Helper()
	tree, err := parser.Parse(l, []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := Extract(tree, []byte(src), l, "proj", relPath, "main", known)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return res
}

func TestExtractGoFunction(t *testing.T) {
	src := `package main

func Hello(name string) string {
	return "hi " + name
}
`
	res := mustExtract(t, lang.Go, src, "main.go", nil)
	if len(res.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(res.Symbols))
	}
	sym := res.Symbols[0]
	if sym.Name != "Hello" || sym.Kind != KindFunction {
		t.Fatalf("unexpected symbol %+v", sym)
	}
	if sym.QualifiedName != "proj.main.Hello" {
		t.Fatalf("unexpected qualified name %q", sym.QualifiedName)
	}
	if len(res.Snippets) != 1 || !strings.Contains(res.Snippets[0].Body, "hi ") {
		t.Fatalf("expected snippet body to contain function text, got %+v", res.Snippets)
	}
}

func TestExtractGoMethodPromotion(t *testing.T) {
	src := `package main

type Server struct{}

func (s *Server) Handle() {
	s.log()
}

func (s *Server) log() {}
`
	res := mustExtract(t, lang.Go, src, "server.go", nil)
	foundMethod := false
	for _, sym := range res.Symbols {
		if sym.Name == "Handle" {
			if sym.Kind != KindMethod {
				t.Fatalf("expected Handle to be promoted to method, got kind %q", sym.Kind)
			}
			foundMethod = true
		}
	}
	if !foundMethod {
		t.Fatalf("Handle symbol not found among %+v", res.Symbols)
	}

	foundCall := false
	for _, e := range res.Edges {
		if e.EdgeType == "calls" && e.ToName == "log" {
			foundCall = true
		}
	}
	if !foundCall {
		t.Fatalf("expected a calls edge to log, got %+v", res.Edges)
	}
}

func TestExtractRustImplKind(t *testing.T) {
	src := `struct Stack<T> {
    items: Vec<T>,
}

impl<T> Stack<T> {
    fn push(&mut self, item: T) {
        self.items.push(item);
    }
}
`
	res := mustExtract(t, lang.Rust, src, "stack.rs", nil)

	kinds := map[string]string{}
	for _, sym := range res.Symbols {
		kinds[sym.Name] = sym.Kind
	}
	if kinds["Stack"] != KindStruct {
		t.Fatalf("expected Stack to resolve to struct, got %+v", kinds)
	}

	foundMethod := false
	for _, sym := range res.Symbols {
		if sym.Name == "push" {
			if sym.Kind != KindMethod {
				t.Fatalf("expected push to be a method, got %q", sym.Kind)
			}
			if !strings.Contains(sym.QualifiedName, "Stack") {
				t.Fatalf("expected push's qualified name to include Stack, got %q", sym.QualifiedName)
			}
			foundMethod = true
		}
	}
	if !foundMethod {
		t.Fatalf("push method not found among %+v", res.Symbols)
	}
}

func TestExtractTSRelativeImportResolves(t *testing.T) {
	src := `import { helper } from "./util";

export function run() {
	helper();
}
`
	known := KnownFiles{"util.ts": true}
	res := mustExtract(t, lang.TypeScript, src, "index.ts", known)

	foundImport := false
	for _, e := range res.Edges {
		if e.EdgeType == "imports" && e.ToName == "./util" {
			foundImport = true
			if e.ToSymbolID == "" {
				t.Fatalf("expected resolved import to set ToSymbolID")
			}
		}
	}
	if !foundImport {
		t.Fatalf("expected an imports edge, got %+v", res.Edges)
	}
}

func TestExtractTSUnresolvedImportKeepsName(t *testing.T) {
	src := `import { z } from "some-external-package";
`
	res := mustExtract(t, lang.TypeScript, src, "index.ts", nil)

	foundImport := false
	for _, e := range res.Edges {
		if e.EdgeType == "imports" {
			foundImport = true
			if e.ToSymbolID != "" {
				t.Fatalf("expected unresolved import to leave ToSymbolID empty, got %q", e.ToSymbolID)
			}
			if e.ToName != "some-external-package" {
				t.Fatalf("expected to_name to record raw target, got %q", e.ToName)
			}
		}
	}
	if !foundImport {
		t.Fatalf("expected an imports edge, got %+v", res.Edges)
	}
}

func TestExtractPythonModuleScopedCallUsesFileID(t *testing.T) {
	src := `def helper():
    pass

helper()
`
	res := mustExtract(t, lang.Python, src, "mod.py", nil)

	for _, e := range res.Edges {
		if e.EdgeType == "calls" && e.ToName == "helper" && e.FromSymbolID == "file::mod.py" {
			return
		}
	}
	t.Fatalf("expected module-scoped call edge from file pseudo-id, got %+v", res.Edges)
}

func TestNormalizeSignatureStable(t *testing.T) {
	a := normalizeSignature("func  Hello(name   string) string {")
	b := normalizeSignature("func Hello(name string) string {")
	if a != b {
		t.Fatalf("expected normalized signatures to match, got %q vs %q", a, b)
	}
}
