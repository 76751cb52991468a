package vector

import (
	"math"
	"testing"

	"github.com/signalridge/cruxe/internal/store"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := []float32{0.1, -0.2, 0.3, 1.5}
	got := DecodeVector(EncodeVector(v))
	if len(got) != len(v) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(v))
	}
	for i := range v {
		if math.Abs(float64(got[i]-v[i])) > 1e-6 {
			t.Fatalf("mismatch at %d: got %f want %f", i, got[i], v[i])
		}
	}
}

func TestCosineIdenticalVectorsScoreOne(t *testing.T) {
	a := []float32{1, 2, 3}
	if score := cosine(a, a); math.Abs(score-1) > 1e-9 {
		t.Fatalf("expected cosine 1 for identical vectors, got %f", score)
	}
}

func TestCosineOrthogonalVectorsScoreZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if score := cosine(a, b); math.Abs(score) > 1e-9 {
		t.Fatalf("expected cosine 0 for orthogonal vectors, got %f", score)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "tier1"},
		{Tier1Max - 1, "tier1"},
		{Tier1Max, "tier2"},
		{Tier2Max - 1, "tier2"},
		{Tier2Max, "tier3"},
	}
	for _, c := range cases {
		if got := Tier(c.count); got != c.want {
			t.Fatalf("Tier(%d) = %s, want %s", c.count, got, c.want)
		}
	}
}

func TestOpenNeverMixesModelVersions(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer s.Close()
	if err := s.UpsertProject(store.Project{ProjectID: "p1", RootPath: "/repo", DefaultRef: "live"}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}

	if err := s.UpsertVector(store.VectorRecord{
		ProjectID: "p1", Ref: "live", SymbolStableID: "sid1",
		EmbeddingModelID: "m1", EmbeddingModelVersion: "v1", Dimensions: 2, Vector: EncodeVector([]float32{1, 0}),
	}); err != nil {
		t.Fatalf("upsert vector v1: %v", err)
	}
	if err := s.UpsertVector(store.VectorRecord{
		ProjectID: "p1", Ref: "live", SymbolStableID: "sid2",
		EmbeddingModelID: "m1", EmbeddingModelVersion: "v2", Dimensions: 2, Vector: EncodeVector([]float32{0, 1}),
	}); err != nil {
		t.Fatalf("upsert vector v2: %v", err)
	}

	idx, err := Open(s, "p1", "live", "m1", "v1")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected exactly 1 vector scoped to model version v1, got %d", idx.Len())
	}
}

func TestTopKOrdersByScore(t *testing.T) {
	idx := &Index{
		records: []store.VectorRecord{{SymbolStableID: "far"}, {SymbolStableID: "near"}},
		vectors: [][]float32{{0, 1}, {1, 0.01}},
	}
	matches := idx.TopK([]float32{1, 0}, 2)
	if len(matches) != 2 || matches[0].SymbolStableID != "near" {
		t.Fatalf("expected near first, got %+v", matches)
	}
}
