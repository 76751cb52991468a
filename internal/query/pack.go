package query

import (
	"encoding/json"
	"math"
	"strings"
)

// ResultCompleteness mirrors the protocol metadata field of the same name.
type ResultCompleteness string

const (
	CompletenessComplete  ResultCompleteness = "complete"
	CompletenessPartial   ResultCompleteness = "partial"
	CompletenessTruncated ResultCompleteness = "truncated"
)

// PackedPayload is a payload-safety-limited result set plus the
// metadata the protocol envelope reports about it.
type PackedPayload struct {
	Results             []RerankResult
	Completeness        ResultCompleteness
	SafetyLimitApplied  bool
	SuggestedNextActions []string
}

// defaultSafetyLimitBytes is the serialized-size cap applied to a
// response payload before it is returned.
const defaultSafetyLimitBytes = 256 * 1024

// ApplySafetyLimit truncates results deterministically (prefix order)
// once their serialized size would exceed limitBytes. Truncation never
// errors; it reports result_completeness=truncated and
// safety_limit_applied=true instead.
func ApplySafetyLimit(results []RerankResult, limitBytes int) PackedPayload {
	if limitBytes <= 0 {
		limitBytes = defaultSafetyLimitBytes
	}

	kept := make([]RerankResult, 0, len(results))
	size := 0
	truncated := false

	for _, r := range results {
		encoded, err := json.Marshal(r)
		if err != nil {
			continue
		}
		next := size + len(encoded)
		if next > limitBytes && len(kept) > 0 {
			truncated = true
			break
		}
		kept = append(kept, r)
		size = next
	}

	payload := PackedPayload{Results: kept, Completeness: CompletenessComplete}
	if truncated {
		payload.Completeness = CompletenessTruncated
		payload.SafetyLimitApplied = true
		payload.SuggestedNextActions = []string{
			"narrow the query with a more specific symbol or path filter",
			"reduce limit or switch to compact=true to fit more results under the payload cap",
		}
	}
	return payload
}

// ContextStrategy selects how get_code_context accumulates symbols
// into a token budget.
type ContextStrategy string

const (
	StrategyBreadth ContextStrategy = "breadth"
	StrategyDepth   ContextStrategy = "depth"
)

// ContextPack is an accumulated, token-budgeted set of results for
// get_code_context.
type ContextPack struct {
	Results        []RerankResult
	EstimatedTokens int
	Completeness   ResultCompleteness
}

// estimateTokens applies the spec's conservative token estimate:
// ceil(word_count * 1.3).
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}

// renderForPacking renders one result's packed body: full body in
// depth mode, signature-only in breadth mode.
func renderForPacking(r RerankResult, strategy ContextStrategy) string {
	var b strings.Builder
	if r.Symbol != nil {
		b.WriteString(r.Symbol.QualifiedName)
		b.WriteString(" ")
		if strategy == StrategyBreadth {
			b.WriteString(r.Symbol.Signature)
			return b.String()
		}
	}
	if strategy == StrategyDepth && r.Snippet != nil {
		b.WriteString(r.Snippet.Body)
		return b.String()
	}
	if r.Symbol != nil {
		b.WriteString(r.Symbol.Signature)
	}
	return b.String()
}

// PackContext accumulates results in rank order under maxTokens,
// stopping before the addition that would exceed the budget. Breadth
// mode favors many signature-level entries; depth mode favors fewer
// full-body entries.
func PackContext(results []RerankResult, maxTokens int, strategy ContextStrategy) ContextPack {
	kept := make([]RerankResult, 0, len(results))
	total := 0

	for _, r := range results {
		rendered := renderForPacking(r, strategy)
		cost := estimateTokens(rendered)
		if total+cost > maxTokens {
			return ContextPack{Results: kept, EstimatedTokens: total, Completeness: CompletenessTruncated}
		}
		kept = append(kept, r)
		total += cost
	}

	completeness := CompletenessComplete
	if len(kept) < len(results) {
		completeness = CompletenessPartial
	}
	return ContextPack{Results: kept, EstimatedTokens: total, Completeness: completeness}
}
