package fqn

import (
	"testing"

	"github.com/signalridge/cruxe/internal/lang"
)

func TestModulePath(t *testing.T) {
	cases := []struct{ project, relPath, want string }{
		{"cruxe", "internal/store/store.go", "cruxe.internal.store.store"},
		{"cruxe", "pkg/a/__init__.py", "cruxe.pkg.a"},
		{"cruxe", "web/components/index.ts", "cruxe.web.components"},
	}
	for _, c := range cases {
		got := ModulePath(c.project, c.relPath)
		if got != c.want {
			t.Errorf("ModulePath(%q,%q) = %q, want %q", c.project, c.relPath, got, c.want)
		}
	}
}

func TestComputeGoDot(t *testing.T) {
	got := Compute(lang.Go, "cruxe", "internal/store/store.go", []string{"Store"}, "Open")
	want := "cruxe.internal.store.store.Store.Open"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestComputeRustDoubleColon(t *testing.T) {
	got := Compute(lang.Rust, "cruxe", "src/store.rs", []string{"Store"}, "open")
	want := "cruxe.src.store::Store::open"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestComputeStripsGenerics(t *testing.T) {
	got := Compute(lang.Rust, "cruxe", "src/stack.rs", nil, "Stack<T>")
	want := "cruxe.src.stack::Stack"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestFolderQN(t *testing.T) {
	if got := FolderQN("cruxe", "internal/store"); got != "cruxe.internal.store" {
		t.Errorf("got %q", got)
	}
	if got := FolderQN("cruxe", ""); got != "cruxe" {
		t.Errorf("got %q", got)
	}
}
