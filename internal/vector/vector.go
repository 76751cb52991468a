// Package vector is the optional semantic vector store: brute-force
// cosine similarity over embeddings the state store persists, with
// tiered size warnings and lazy initialization on first semantic query.
// No third-party vector/ANN library is used — a linear scan over a few
// tens of thousands of float32 slices is cheap enough in Go that an
// index structure would add complexity without a measurable win at the
// sizes this tier targets, and no ANN library appears anywhere in the
// retrieval pack.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/signalridge/cruxe/internal/store"
)

// Size tiers for the optional vector backend, per (project, ref).
const (
	Tier1Max = 50_000
	Tier2Max = 200_000
)

// Tier classifies a vector count into the spec's degradation bands.
func Tier(count int) string {
	switch {
	case count < Tier1Max:
		return "tier1"
	case count < Tier2Max:
		return "tier2"
	default:
		return "tier3"
	}
}

// Warning describes the degradation notice attached to a semantic query
// once a project crosses a size tier.
type Warning struct {
	Tier    string
	Count   int
	Message string
}

func warningFor(tier string, count int) *Warning {
	switch tier {
	case "tier2":
		return &Warning{Tier: tier, Count: count, Message: fmt.Sprintf("semantic search is scanning %d vectors linearly; latency will grow with project size", count)}
	case "tier3":
		return &Warning{Tier: tier, Count: count, Message: fmt.Sprintf("semantic search is scanning %d vectors linearly and has crossed the recommended ceiling; consider a dedicated vector backend", count)}
	default:
		return nil
	}
}

// EncodeVector packs a float32 embedding into the blob layout the
// vector_records table stores.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a stored blob back into a float32 embedding.
func DecodeVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Match is one nearest-neighbor result.
type Match struct {
	SymbolStableID string
	SnippetHash    string
	Score          float64
}

// Index is a lazily-populated in-memory brute-force index for one
// (project, ref, model_id, model_version) scope. Callers obtain one via
// Open on first semantic query and may cache it for the lifetime of
// that ref's warmset entry.
type Index struct {
	records []store.VectorRecord
	vectors [][]float32
	Warning *Warning
}

// Open loads every vector for the given model scope from the state
// store and prepares the in-memory scan set. Returns a nil Warning when
// the project is within Tier 1.
func Open(s *store.Store, projectID, ref, modelID, modelVersion string) (*Index, error) {
	records, err := s.VectorsForModel(projectID, ref, modelID, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	vectors := make([][]float32, len(records))
	for i, r := range records {
		vectors[i] = DecodeVector(r.Vector)
	}
	tier := Tier(len(records))
	return &Index{records: records, vectors: vectors, Warning: warningFor(tier, len(records))}, nil
}

// Len reports how many vectors are loaded.
func (x *Index) Len() int {
	return len(x.records)
}

// TopK returns the topK nearest neighbors to query by cosine
// similarity, highest score first.
func (x *Index) TopK(query []float32, topK int) []Match {
	matches := make([]Match, 0, len(x.vectors))
	for i, v := range x.vectors {
		if len(v) != len(query) {
			continue
		}
		matches = append(matches, Match{
			SymbolStableID: x.records[i].SymbolStableID,
			SnippetHash:    x.records[i].SnippetHash,
			Score:          cosine(query, v),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
