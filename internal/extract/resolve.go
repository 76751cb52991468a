package extract

import (
	"path/filepath"
	"strings"

	"github.com/signalridge/cruxe/internal/lang"
)

// resolveImport attempts a best-effort mapping of an import's raw
// target text to a project-relative path, returning "" when nothing in
// known matches. Resolution is deliberately conservative: an import
// that can't be placed with confidence is left unresolved rather than
// guessed at, per the edge confidence contract (unresolved imports
// still record to_name, just not to_symbol_id).
func resolveImport(l lang.Language, fromPath, target string, known KnownFiles) string {
	switch l {
	case lang.TypeScript, lang.TSX:
		return resolveTSImport(fromPath, target, known)
	case lang.Rust:
		return resolveRustImport(fromPath, target, known)
	case lang.Python:
		return resolvePythonImport(fromPath, target, known)
	default:
		return resolveGoImport(fromPath, target, known)
	}
}

func resolveTSImport(fromPath, target string, known KnownFiles) string {
	if !strings.HasPrefix(target, ".") {
		return ""
	}
	base := filepath.ToSlash(filepath.Join(filepath.Dir(fromPath), target))
	candidates := []string{
		base,
		base + ".ts",
		base + ".tsx",
		base + "/index.ts",
		base + "/index.tsx",
	}
	for _, c := range candidates {
		if known[c] {
			return c
		}
	}
	return ""
}

func resolveRustImport(fromPath, target string, known KnownFiles) string {
	dir := filepath.ToSlash(filepath.Dir(fromPath))
	segments := strings.Split(target, "::")
	if len(segments) == 0 {
		return ""
	}

	switch segments[0] {
	case "self":
		segments = segments[1:]
	case "super":
		for len(segments) > 0 && segments[0] == "super" {
			dir = filepath.ToSlash(filepath.Dir(dir))
			segments = segments[1:]
		}
	case "crate":
		dir = "src"
		segments = segments[1:]
	default:
		return ""
	}
	if len(segments) == 0 {
		return ""
	}

	rel := strings.Join(segments, "/")
	candidates := []string{
		dir + "/" + rel + ".rs",
		dir + "/" + rel + "/mod.rs",
	}
	for _, c := range candidates {
		if known[strings.TrimPrefix(c, "/")] {
			return strings.TrimPrefix(c, "/")
		}
	}
	return ""
}

func resolvePythonImport(fromPath, target string, known KnownFiles) string {
	dir := filepath.ToSlash(filepath.Dir(fromPath))
	dots := 0
	for dots < len(target) && target[dots] == '.' {
		dots++
	}
	rest := target[dots:]

	for i := 1; i < dots; i++ {
		dir = filepath.ToSlash(filepath.Dir(dir))
	}
	if dots == 0 {
		dir = ""
	}

	rel := strings.ReplaceAll(rest, ".", "/")
	var base string
	if dir == "" || dir == "." {
		base = rel
	} else {
		base = dir + "/" + rel
	}

	candidates := []string{
		base + ".py",
		base + "/__init__.py",
	}
	for _, c := range candidates {
		if known[c] {
			return c
		}
	}
	return ""
}

func resolveGoImport(fromPath, target string, known KnownFiles) string {
	// Go's import paths are module-rooted, not file-relative; without
	// the module's own path prefix a reliable mapping needs more context
	// than a single file's AST provides, so Go imports are recorded
	// unresolved (to_name only) same as any import the heuristic can't
	// place with confidence.
	return ""
}
