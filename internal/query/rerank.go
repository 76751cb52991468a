package query

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/signalridge/cruxe/internal/extract"
)

// Additive rerank signal weights.
const (
	signalExactMatch      = 5.0
	signalQualifiedName   = 2.0
	signalDefinitionBoost = 1.0
	signalPathAffinity    = 1.0
	signalTestFilePenalty = -0.5
)

// kindWeights is the kind_weight signal table: class/interface/trait
// score highest, callables and aliases mid, module and field lowest.
// Kinds missing from the table (extract has no constant or variable
// kind) score 0.
var kindWeights = map[string]float64{
	extract.KindClass:     2.0,
	extract.KindInterface: 2.0,
	extract.KindTrait:     2.0,
	extract.KindStruct:    1.8,
	extract.KindEnum:      1.8,
	extract.KindTypeAlias: 1.5,
	extract.KindFunction:  1.5,
	extract.KindMethod:    1.5,
	extract.KindModule:    0.8,
	extract.KindField:     0.5,
}

func kindWeight(kind string) float64 {
	if w, ok := kindWeights[kind]; ok {
		return w
	}
	return 0.0
}

// typeKinds and callableKinds partition symbol kinds for the
// query_intent_boost signal.
var typeKinds = map[string]bool{
	extract.KindClass:     true,
	extract.KindInterface: true,
	extract.KindTrait:     true,
	extract.KindStruct:    true,
	extract.KindEnum:      true,
	extract.KindTypeAlias: true,
}

var callableKinds = map[string]bool{
	extract.KindFunction: true,
	extract.KindMethod:   true,
}

var upperNoUnderscore = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
var lowerOrUnderscore = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]*$`)

// intentBoost implements query_intent_boost: an uppercase-no-underscore
// query paired with a type-shaped kind scores +1.0; a lowercase-or-
// underscore query paired with a callable kind scores +0.5.
func intentBoost(queryText, kind string) float64 {
	if kind == "" {
		return 0
	}
	if upperNoUnderscore.MatchString(queryText) && typeKinds[kind] {
		return 1.0
	}
	if lowerOrUnderscore.MatchString(queryText) && callableKinds[kind] {
		return 0.5
	}
	return 0
}

var testFilePatterns = []string{"_test.", ".test.", ".spec.", "/test/", "/tests/", "test_"}

// isTestFile flags paths the test_file_penalty applies to, applied
// once even when multiple patterns match.
func isTestFile(path string) bool {
	p := strings.ToLower(path)
	for _, pat := range testFilePatterns {
		if strings.Contains(p, pat) {
			return true
		}
	}
	return false
}

// RerankProvider is a pluggable scorer, typically backed by a model
// call, that can refine fused rank order beyond the additive signal
// table. Implementations must respect ctx's deadline themselves;
// Rerank additionally enforces its own hard timeout around the call.
type RerankProvider interface {
	Score(ctx context.Context, queryText string, candidates []Fused) ([]float64, error)
}

// rerankDeadline is the hard ceiling a RerankProvider call is allowed
// to run before Rerank falls back to the additive signal table alone.
const rerankDeadline = 5 * time.Second

// RerankResult is one candidate after the additive signal table (and,
// when available, a provider) has adjusted its fused score.
type RerankResult struct {
	Fused
	FinalScore     float64
	RerankFallback bool
}

// Rerank applies the additive signal table to every fused candidate,
// then, when provider is non-nil, asks it to refine scores under a
// hard deadline; a timeout or error falls back to the additive scores
// alone with RerankFallback set.
//
// Semantic-only hits (no enriched Symbol) get kind_weight and
// query_intent_boost of 0 rather than a penalty, per the enrichment
// contract.
func Rerank(ctx context.Context, queryText string, fused []Fused, provider RerankProvider) []RerankResult {
	out := make([]RerankResult, len(fused))
	qTrimmed := strings.TrimSpace(queryText)
	qLower := strings.ToLower(qTrimmed)

	for i, f := range fused {
		score := f.FusedScore

		name := ""
		qualified := ""
		kind := ""
		if f.Symbol != nil {
			name = f.Symbol.Name
			qualified = f.Symbol.QualifiedName
			kind = f.Symbol.Kind
		}

		if name != "" && strings.EqualFold(name, qTrimmed) {
			score += signalExactMatch
		}
		if qualified != "" && qLower != "" && strings.Contains(strings.ToLower(qualified), qLower) {
			score += signalQualifiedName
		}
		score += kindWeight(kind)
		score += intentBoost(qTrimmed, kind)
		// Every candidate enriched with a Symbol is, by construction, a
		// definition site: store.Symbol rows only ever represent where
		// something is defined, never a call/reference (those live as
		// SymbolEdge rows and never populate Fused.Symbol).
		if f.Symbol != nil {
			score += signalDefinitionBoost
		}
		if f.Path != "" && qLower != "" && strings.Contains(strings.ToLower(f.Path), qLower) {
			score += signalPathAffinity
		}
		if isTestFile(f.Path) {
			score += signalTestFilePenalty
		}

		out[i] = RerankResult{Fused: f, FinalScore: score}
	}

	if provider == nil {
		sortRerankResults(out)
		return out
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, rerankDeadline)
	defer cancel()

	scores, err := provider.Score(deadlineCtx, queryText, fused)
	if err != nil || len(scores) != len(out) {
		for i := range out {
			out[i].RerankFallback = true
		}
		sortRerankResults(out)
		return out
	}

	for i := range out {
		out[i].FinalScore += scores[i]
	}
	sortRerankResults(out)
	return out
}

func sortRerankResults(results []RerankResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
}
