package query

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Intent classifies the raw query string.
type Intent string

const (
	IntentSymbol     Intent = "symbol"
	IntentPath       Intent = "path"
	IntentError      Intent = "error"
	IntentNatural    Intent = "natural_language"
)

var (
	camelCasePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*[A-Z][a-zA-Z0-9]*$|^[A-Z][a-zA-Z0-9]*[a-z][a-zA-Z0-9]*$`)
	snakeCasePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(_[a-zA-Z0-9]+)+$`)
	errorPattern     = regexp.MustCompile(`(?i)panic:|thread '|traceback|error:|exception:|at\s+\S+\(.*:\d+\)`)

	recognizedExtensions = map[string]bool{
		".go": true, ".rs": true, ".py": true, ".ts": true, ".tsx": true,
		".js": true, ".jsx": true, ".json": true, ".md": true, ".toml": true,
		".yaml": true, ".yml": true,
	}
)

// Classify determines intent by rule order, deterministic on ties:
// symbol-shaped tokens first, then path-shaped strings, then error
// signatures, falling back to natural language.
func Classify(rawQuery string) Intent {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return IntentNatural
	}

	if isSymbolShaped(q) {
		return IntentSymbol
	}
	if isPathShaped(q) {
		return IntentPath
	}
	if errorPattern.MatchString(q) {
		return IntentError
	}
	return IntentNatural
}

func isSymbolShaped(q string) bool {
	if strings.ContainsAny(q, " \t\n") {
		return false
	}
	return camelCasePattern.MatchString(q) || snakeCasePattern.MatchString(q)
}

func isPathShaped(q string) bool {
	if strings.Contains(q, "/") {
		return true
	}
	ext := filepath.Ext(q)
	return ext != "" && recognizedExtensions[ext]
}
