package fts

import (
	"path/filepath"
	"testing"
)

func TestCamelCaseSplit(t *testing.T) {
	got := splitCamelCase("validateUserToken")
	want := []string{"validate", "user", "token", "validateUserToken"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPathSplit(t *testing.T) {
	split := splitOnRunes('/', '.')
	got := split("src/auth/handler.rs")
	want := []string{"src", "auth", "handler", "rs"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDottedNameSplit(t *testing.T) {
	split := splitOnRunes('.')
	got := split("pkg.module.Class")
	want := []string{"pkg", "module", "Class"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIndexAndSearchSymbol(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "live")
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	err = idx.IndexSymbol(SymbolDoc{
		SymbolExact:    "validateUserToken",
		QualifiedName:  "auth.validateUserToken",
		Signature:      "func validateUserToken(token string) bool",
		Path:           "src/auth/handler.go",
		Content:        "func validateUserToken(token string) bool { return true }",
		Ref:            "live",
		Role:           "callable",
		Kind:           "function",
		Language:       "go",
		SymbolStableID: "sid1",
	})
	if err != nil {
		t.Fatalf("index symbol: %v", err)
	}

	hits, err := idx.Search("user", "live", TypeSymbol, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestSearchScopedByRef(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "live")
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	if err := idx.IndexSymbol(SymbolDoc{SymbolExact: "Foo", Content: "func Foo()", Ref: "main", Kind: "function", SymbolStableID: "sid-main"}); err != nil {
		t.Fatalf("index on main: %v", err)
	}
	if err := idx.IndexSymbol(SymbolDoc{SymbolExact: "Foo", Content: "func Foo()", Ref: "feature", Kind: "function", SymbolStableID: "sid-feature"}); err != nil {
		t.Fatalf("index on feature: %v", err)
	}

	hits, err := idx.Search("Foo", "main", TypeSymbol, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected ref-scoped search to return exactly 1 hit, got %d", len(hits))
	}
}

func TestDeleteFileDocs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "live")
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	if err := idx.IndexSymbol(SymbolDoc{SymbolExact: "Foo", Path: "a.go", Ref: "live", SymbolStableID: "sid1"}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := idx.IndexFile(FileDoc{Path: "a.go", Ref: "live"}); err != nil {
		t.Fatalf("index file: %v", err)
	}
	if err := idx.DeleteFileDocs("live", "a.go", []string{"sid1"}, nil); err != nil {
		t.Fatalf("delete file docs: %v", err)
	}
	hits, err := idx.Search("Foo", "live", TypeSymbol, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected symbol removed, got %d hits", len(hits))
	}
}

func TestRebuildStagedPublishesAtomically(t *testing.T) {
	base := t.TempDir()
	liveDir := filepath.Join(base, "fts", "live")

	err := RebuildStaged(liveDir, func(staged *Index) error {
		return staged.IndexSymbol(SymbolDoc{SymbolExact: "Bar", Ref: "live", SymbolStableID: "sid-bar"})
	})
	if err != nil {
		t.Fatalf("rebuild staged: %v", err)
	}

	idx, err := Open(liveDir)
	if err != nil {
		t.Fatalf("open published index: %v", err)
	}
	defer idx.Close()

	hits, err := idx.Search("Bar", "live", TypeSymbol, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected published index to contain staged doc, got %d hits", len(hits))
	}
}
