package query

// DedupResult is the post-dedup result list plus how many duplicates
// it suppressed, reported in response metadata.
type DedupResult struct {
	Results    []RerankResult
	Suppressed int
}

// Dedup drops exact merge-key repeats (already collapsed by fusion,
// but a provider's own reordering can't reintroduce them) and
// near-duplicate snippet bodies whose n-gram overlap crosses
// nearDuplicateThreshold, keeping the higher-scoring copy.
func Dedup(results []RerankResult) DedupResult {
	seen := make(map[string]bool, len(results))
	kept := make([]RerankResult, 0, len(results))
	suppressed := 0

	for _, r := range results {
		key := mergeKey(r.Candidate)
		if seen[key] {
			suppressed++
			continue
		}
		if idx := nearDuplicateOf(kept, r); idx >= 0 {
			suppressed++
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}

	return DedupResult{Results: kept, Suppressed: suppressed}
}

// nearDuplicateThreshold is the n-gram overlap coefficient above which
// two snippet bodies are considered the same underlying text.
const nearDuplicateThreshold = 0.92

// ngramSize is the n-gram window nearDuplicateOf compares bodies with.
const ngramSize = 5

// nearDuplicateOf returns the index of an already-kept result whose
// snippet body is a near-duplicate of r's, or -1 if none is.
func nearDuplicateOf(kept []RerankResult, r RerankResult) int {
	if r.Snippet == nil || r.Snippet.Body == "" {
		return -1
	}
	for i, k := range kept {
		if k.Snippet == nil || k.Snippet.Body == "" {
			continue
		}
		if ngramOverlap(r.Snippet.Body, k.Snippet.Body, ngramSize) >= nearDuplicateThreshold {
			return i
		}
	}
	return -1
}
