package tools

import (
	"github.com/signalridge/cruxe/internal/query"
	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vector"
)

// symbolToMap renders a store.Symbol as the JSON shape every tool
// response uses for a symbol result.
func symbolToMap(sym store.Symbol) map[string]any {
	return map[string]any{
		"symbol_stable_id": sym.SymbolStableID,
		"name":             sym.Name,
		"qualified_name":   sym.QualifiedName,
		"kind":             sym.Kind,
		"role":             sym.Role,
		"language":         sym.Language,
		"path":             sym.Path,
		"line_start":       sym.LineStart,
		"line_end":         sym.LineEnd,
		"signature":        sym.Signature,
		"source_layer":     sym.SourceLayer,
	}
}

// renderResults renders a slice of reranked/packed query results into
// the JSON shape search_code and get_code_context return. compact
// drops the signature and snippet body; identity, location and score
// fields are returned either way.
func renderResults(results []query.RerankResult, compact bool) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		m := map[string]any{
			"kind":           string(r.Kind),
			"path":           r.Path,
			"line_start":     r.LineStart,
			"line_end":       r.LineEnd,
			"source_layer":   r.SourceLayer,
			"final_score":    r.FinalScore,
			"seen_channels":  r.SeenChannels,
			"rerank_fallback": r.RerankFallback,
		}
		if r.Symbol != nil {
			m["symbol_stable_id"] = r.Symbol.SymbolStableID
			m["name"] = r.Symbol.Name
			m["qualified_name"] = r.Symbol.QualifiedName
			m["symbol_kind"] = r.Symbol.Kind
			m["role"] = r.Symbol.Role
			m["language"] = r.Symbol.Language
			if !compact {
				m["signature"] = r.Symbol.Signature
			}
		}
		if !compact && r.Snippet != nil {
			m["snippet"] = r.Snippet.Body
		}
		out = append(out, m)
	}
	return out
}

// vectorOpener returns a query.Pipeline.VectorOpener bound to one
// resolved workspace's vector store, using the server's configured
// embedding model scope.
func (s *Server) vectorOpener(ws *resolvedWorkspace) func(ref string) (*vector.Index, error) {
	return func(ref string) (*vector.Index, error) {
		return vector.Open(ws.Store, ws.ProjectID, ref, s.VectorModelID, s.VectorModelVersion)
	}
}
