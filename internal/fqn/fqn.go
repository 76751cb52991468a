// Package fqn computes qualified names for files, folders and symbols.
// The filesystem portion of a qualified name is always dot-joined (it
// mirrors import-path conventions across all four languages); the
// symbol-scope portion within a file honors the language's own
// separator (e.g. "::" for Rust).
package fqn

import (
	"path/filepath"
	"strings"

	"github.com/signalridge/cruxe/internal/lang"
)

// ModulePath returns the dotted module path for a file: project name
// followed by its relative path with the extension stripped and path
// separators turned into dots. __init__/index files fold into their
// containing package.
func ModulePath(project, relPath string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	if len(parts) > 0 && (parts[len(parts)-1] == "__init__" || parts[len(parts)-1] == "index") {
		parts = parts[:len(parts)-1]
	}

	all := append([]string{project}, parts...)
	return strings.Join(all, ".")
}

// FolderQN returns the qualified name for a folder.
func FolderQN(project, relDir string) string {
	if relDir == "" || relDir == "." {
		return project
	}
	parts := strings.Split(filepath.ToSlash(relDir), "/")
	all := append([]string{project}, parts...)
	return strings.Join(all, ".")
}

// Compute returns the canonical qualified name for a symbol: the file's
// module path, joined with its enclosing scope chain (outer to inner,
// e.g. ["Server"] for a method named "Handle" on struct Server) and its
// own name, using the language's qualified-name separator for the scope
// portion.
//
// Examples:
//   - cruxe.internal.store.store.Store (Go type in internal/store/store.go)
//   - cruxe.src.store::Store::open (Rust impl method in src/store.rs;
//     dotted module path, then the "::"-joined scope portion)
func Compute(l lang.Language, project, relPath string, scopeChain []string, name string) string {
	modPath := ModulePath(project, relPath)
	sep := "."
	if spec := lang.ForLanguage(l); spec != nil {
		sep = spec.Separator()
	}

	segments := append(append([]string{}, scopeChain...), name)
	tail := strings.Join(stripGenerics(segments), sep)
	if tail == "" {
		return modPath
	}
	return modPath + sep + tail
}

// stripGenerics removes generic/type-parameter suffixes such as
// "Stack<T>" or "Vec<Item>" from each segment so qualified names stay
// stable across monomorphizations.
func stripGenerics(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		if idx := strings.IndexByte(s, '<'); idx >= 0 {
			s = s[:idx]
		}
		if idx := strings.IndexByte(s, '['); idx >= 0 && !strings.HasSuffix(s, "]") {
			s = s[:idx]
		}
		out[i] = s
	}
	return out
}
