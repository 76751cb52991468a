package query

import (
	"strings"

	"github.com/signalridge/cruxe/internal/fts"
	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vector"
)

// CandidateKind names which relational shape a Candidate carries.
type CandidateKind string

const (
	CandidateSymbol  CandidateKind = "symbol"
	CandidateSnippet CandidateKind = "snippet"
	CandidateFile    CandidateKind = "file"
)

// Candidate is one retrieval hit from any channel, carried forward
// through fusion, rerank, dedup, policy and packing.
type Candidate struct {
	Kind     CandidateKind
	Channel  string
	RawScore float64

	Symbol  *store.Symbol
	Snippet *store.Snippet
	File    *store.FileRecord

	SymbolStableID string
	Path           string
	LineStart      int
	LineEnd        int
	SourceLayer    string
}

// TagSourceLayer stamps every candidate in cs with layer, used when
// merging base and overlay channel results at query time.
func TagSourceLayer(cs []Candidate, layer string) []Candidate {
	for i := range cs {
		cs[i].SourceLayer = layer
	}
	return cs
}

// fieldWeights is the BM25 field-boost table: how much a hit's raw
// bleve score is scaled by, depending on which field the query text
// matched most specifically. symbol_exact beats qualified_name beats
// signature beats path beats unstructured content.
var fieldWeights = []struct {
	field  string
	weight float64
}{
	{"symbol_exact", 10.0},
	{"qualified_name", 3.0},
	{"signature", 1.5},
	{"path", 1.0},
	{"content", 0.5},
}

// bestFieldWeight inspects a hit's stored fields for the one the raw
// query text matches most specifically, highest weight first.
func bestFieldWeight(queryText string, fields map[string]interface{}) float64 {
	q := strings.ToLower(strings.TrimSpace(queryText))
	for _, fw := range fieldWeights {
		raw, ok := fields[fw.field]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		if strings.Contains(strings.ToLower(s), q) {
			return fw.weight
		}
	}
	return fieldWeights[len(fieldWeights)-1].weight
}

// SymbolChannel searches the symbols collection and enriches each hit
// with its relational Symbol row.
func SymbolChannel(idx *fts.Index, st *store.Store, projectID, queryText, ref string, fanout int) ([]Candidate, error) {
	hits, err := idx.Search(queryText, ref, fts.TypeSymbol, fanout)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		stableID, _ := h.Fields["symbol_stable_id"].(string)
		if stableID == "" {
			continue
		}
		sym, err := st.GetSymbol(projectID, ref, stableID)
		if err != nil || sym == nil {
			continue
		}
		out = append(out, Candidate{
			Kind:           CandidateSymbol,
			Channel:        "symbol",
			RawScore:       h.Score * bestFieldWeight(queryText, h.Fields),
			Symbol:         sym,
			SymbolStableID: sym.SymbolStableID,
			Path:           sym.Path,
			LineStart:      sym.LineStart,
			LineEnd:        sym.LineEnd,
		})
	}
	return out, nil
}

// SnippetChannel searches the snippets collection, resolving each hit
// back to its relational Snippet row by path+line-range overlap since
// snippets are keyed by content hash, not a stable symbol id.
func SnippetChannel(idx *fts.Index, st *store.Store, projectID, queryText, ref string, fanout int) ([]Candidate, error) {
	hits, err := idx.Search(queryText, ref, fts.TypeSnippet, fanout)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		path, _ := h.Fields["path"].(string)
		if path == "" {
			continue
		}
		lineStart, lineEnd := fieldRange(h.Fields)
		snippets, err := st.SnippetsOverlapping(projectID, ref, path, lineStart, lineEnd)
		if err != nil || len(snippets) == 0 {
			continue
		}
		snip := snippets[0]
		out = append(out, Candidate{
			Kind:      CandidateSnippet,
			Channel:   "snippet",
			RawScore:  h.Score * bestFieldWeight(queryText, h.Fields),
			Snippet:   &snip,
			Path:      snip.Path,
			LineStart: snip.LineStart,
			LineEnd:   snip.LineEnd,
		})
	}
	return out, nil
}

// FileChannel searches the files collection for filename/path/content-head
// matches, enriching with the relational FileRecord.
func FileChannel(idx *fts.Index, st *store.Store, projectID, queryText, ref string, fanout int) ([]Candidate, error) {
	hits, err := idx.Search(queryText, ref, fts.TypeFile, fanout)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		path, _ := h.Fields["path"].(string)
		if path == "" {
			continue
		}
		rec, err := st.GetFile(projectID, ref, path)
		if err != nil || rec == nil {
			continue
		}
		out = append(out, Candidate{
			Kind:     CandidateFile,
			Channel:  "file",
			RawScore: h.Score * bestFieldWeight(queryText, h.Fields),
			File:     rec,
			Path:     rec.Path,
		})
	}
	return out, nil
}

// SemanticChannel runs a cosine top-K search against the optional
// vector index. A match whose symbol_stable_id resolves to a known
// symbol is enriched with it; any other match carrying a snippet hash
// is kept as a bare snippet candidate (score only, not looked up).
// Matches with neither are dropped.
func SemanticChannel(idx *vector.Index, st *store.Store, projectID, ref string, embedding []float32, limit int) ([]Candidate, error) {
	matches := idx.TopK(embedding, limit)
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		if m.SymbolStableID != "" {
			sym, err := st.GetSymbol(projectID, ref, m.SymbolStableID)
			if err == nil && sym != nil {
				out = append(out, Candidate{
					Kind:           CandidateSymbol,
					Channel:        "semantic",
					RawScore:       m.Score,
					Symbol:         sym,
					SymbolStableID: sym.SymbolStableID,
					Path:           sym.Path,
					LineStart:      sym.LineStart,
					LineEnd:        sym.LineEnd,
				})
				continue
			}
		}
		if m.SnippetHash != "" {
			out = append(out, Candidate{
				Kind:     CandidateSnippet,
				Channel:  "semantic",
				RawScore: m.Score,
			})
		}
	}
	return out, nil
}

func fieldRange(fields map[string]interface{}) (int, int) {
	start := fieldInt(fields["line_start"])
	end := fieldInt(fields["line_end"])
	return start, end
}

func fieldInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
