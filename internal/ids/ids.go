// Package ids computes Cruxe's content-derived stable identifiers:
// project ids, symbol stable ids, content hashes and snippet hashes.
// All of them are blake3 digests so identical content always yields
// the same identity regardless of when or where it was indexed.
package ids

import (
	"encoding/hex"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

// sum256Hex returns the full 256-bit blake3 digest of data, hex-encoded.
func sum256Hex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ProjectID returns the first 16 hex characters of blake3(realpath(root)).
func ProjectID(realRoot string) string {
	full := sum256Hex([]byte(filepath.Clean(realRoot)))
	return full[:16]
}

// ContentHash returns blake3(bytes) for a file's raw content.
func ContentHash(content []byte) string {
	return sum256Hex(content)
}

// SnippetHash returns blake3(body) for a snippet's text.
func SnippetHash(body string) string {
	return sum256Hex([]byte(body))
}

// SymbolStableID computes:
//
//	blake3("stable_id:v1|" + language + "|" + kind + "|" + qualified_name + "|" + normalized_signature)
//
// It deliberately excludes line numbers and visibility so that benign
// edits (line movement, visibility-only changes) don't change identity.
func SymbolStableID(language, kind, qualifiedName, normalizedSignature string) string {
	input := strings.Join([]string{"stable_id:v1", language, kind, qualifiedName, normalizedSignature}, "|")
	return sum256Hex([]byte(input))
}

// FileSymbolID returns the pseudo-symbol id used as the from_symbol_id
// for file-scope (module-level) call and import edges.
func FileSymbolID(relPath string) string {
	return "file::" + filepath.ToSlash(relPath)
}
