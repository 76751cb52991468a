// Package query is the hybrid retrieval pipeline: intent classification,
// adaptive plan selection, multi-channel retrieval, RRF fusion, additive
// reranking with an optional provider, near-duplicate dedup, policy
// filtering/redaction, and token-budgeted payload packing, merging a
// ref's overlay over its project's base index where VCS mode applies.
package query

import (
	"context"
	"fmt"

	"github.com/signalridge/cruxe/internal/fts"
	"github.com/signalridge/cruxe/internal/store"
	"github.com/signalridge/cruxe/internal/vector"
)

const layerBase = "base"
const layerOverlay = "overlay"

// Embedder produces a query embedding for the semantic channel. Nil
// means semantic retrieval is unavailable for this pipeline instance.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline holds everything one project's queries are executed
// against: its full-text index, relational store, optional vector
// index opener and embedder, optional rerank provider, and policy
// config.
type Pipeline struct {
	FTS       *fts.Index
	Store     *store.Store
	ProjectID string

	VectorOpener func(ref string) (*vector.Index, error)
	Embedder     Embedder

	RerankProvider RerankProvider
	Policy         PolicyConfig
}

// Request is one query call's parameters, shared across search_code,
// locate_symbol and get_code_context; tools map their own parameters
// onto this before calling Execute.
type Request struct {
	QueryText      string
	Ref            string
	DefaultRef     string
	Limit          int
	PolicyOverride *PolicyMode
	// RoleFilter restricts results to symbols whose Role matches
	// exactly, applied after rerank/dedup so role never skews fusion
	// or dedup grouping, only which results survive to the caller.
	RoleFilter string
}

// Response is the fully processed result of one query, carrying the
// protocol metadata fields the tool layer reports back.
type Response struct {
	Results []RerankResult

	Intent      Intent
	Plan        PlanDecision
	Budgets     Budgets

	SemanticEnabled   bool
	SemanticTriggered bool
	SemanticFallback  bool
	SemanticSkippedReason string
	SemanticWarning   *vector.Warning
	SemanticBudgetExhausted bool

	SuppressedDuplicateCount int

	PolicyMode           PolicyMode
	PolicyBlockedCount   int
	PolicyRedactedCount  int

	Completeness ResultCompleteness
	SafetyLimitApplied bool
	SuggestedNextActions []string

	Warnings []string
}

// Execute runs the full pipeline for req: classify intent, select a
// plan, retrieve across channels (merging base+overlay when req.Ref is
// not the project's default ref), fuse, rerank, dedup, apply policy,
// and pack under the payload safety limit.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.QueryText == "" {
		return nil, fmt.Errorf("invalid_input: query text is required")
	}

	intent := Classify(req.QueryText)
	lexicalConfidence := estimateLexicalConfidence(req.QueryText)
	semanticAvailable := p.Embedder != nil && p.VectorOpener != nil
	planDecision := SelectPlan(intent, lexicalConfidence, semanticAvailable)
	budgets := ResolveBudgets(req.Limit, req.Limit, req.Limit)

	resp := &Response{
		Intent:  intent,
		Plan:    planDecision,
		Budgets: budgets,
	}

	var warnings []string

	symbolCandidates, symWarn := p.retrieveChannel(func(ref string) ([]Candidate, error) {
		return SymbolChannel(p.FTS, p.Store, p.ProjectID, req.QueryText, ref, budgets.LexicalFanoutUsed)
	}, req)
	warnings = append(warnings, symWarn...)

	snippetCandidates, snipWarn := p.retrieveChannel(func(ref string) ([]Candidate, error) {
		return SnippetChannel(p.FTS, p.Store, p.ProjectID, req.QueryText, ref, budgets.LexicalFanoutUsed)
	}, req)
	warnings = append(warnings, snipWarn...)

	fileCandidates, fileWarn := p.retrieveChannel(func(ref string) ([]Candidate, error) {
		return FileChannel(p.FTS, p.Store, p.ProjectID, req.QueryText, ref, budgets.LexicalFanoutUsed)
	}, req)
	warnings = append(warnings, fileWarn...)

	channels := [][]Candidate{symbolCandidates, snippetCandidates, fileCandidates}

	resp.SemanticEnabled = semanticAvailable
	if planDecision.Plan != PlanLexicalFast && semanticAvailable {
		semanticCandidates, triggered, fallback, reason, warn := p.retrieveSemantic(ctx, req, budgets)
		resp.SemanticTriggered = triggered
		resp.SemanticFallback = fallback
		resp.SemanticSkippedReason = reason
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if len(semanticCandidates) > 0 {
			channels = append(channels, semanticCandidates)
		}
		if len(semanticCandidates) >= budgets.SemanticLimitUsed {
			resp.SemanticBudgetExhausted = true
		}
	} else if !semanticAvailable {
		resp.SemanticSkippedReason = "semantic_unavailable"
	}

	tombstones := p.tombstonedPaths(req)
	fused := FuseRanks(filterTombstoned(channels, tombstones)...)

	reranked := Rerank(ctx, req.QueryText, fused, p.RerankProvider)
	for _, r := range reranked {
		if r.RerankFallback {
			warnings = append(warnings, "rerank provider timed out or failed, used rule-based fallback")
			break
		}
	}

	deduped := Dedup(reranked)
	resp.SuppressedDuplicateCount = deduped.Suppressed

	results := deduped.Results
	if req.RoleFilter != "" {
		filtered := make([]RerankResult, 0, len(results))
		for _, r := range results {
			if r.Symbol != nil && r.Symbol.Role == req.RoleFilter {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	mode, overrideWarnings, err := p.Policy.ResolveMode(req.PolicyOverride)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, overrideWarnings...)

	policed, blocked, redacted, policyWarnings := ApplyPolicy(mode, p.Policy, results)
	resp.PolicyMode = mode
	resp.PolicyBlockedCount = blocked
	resp.PolicyRedactedCount = redacted
	warnings = append(warnings, policyWarnings...)

	limit := req.Limit
	if limit <= 0 || limit > len(policed) {
		limit = len(policed)
	}
	packed := ApplySafetyLimit(policed[:limit], defaultSafetyLimitBytes)

	resp.Results = packed.Results
	resp.Completeness = packed.Completeness
	resp.SafetyLimitApplied = packed.SafetyLimitApplied
	resp.SuggestedNextActions = packed.SuggestedNextActions
	resp.Warnings = warnings

	return resp, nil
}

// retrieveChannel runs fetch against req.Ref, and, in VCS overlay mode
// (req.Ref != req.DefaultRef), also against the base ref, tagging each
// batch's source_layer. A channel failure degrades to an empty result
// with a warning rather than failing the whole query.
func (p *Pipeline) retrieveChannel(fetch func(ref string) ([]Candidate, error), req Request) ([]Candidate, []string) {
	var warnings []string
	var out []Candidate

	overlayRef := req.Ref
	if overlayRef == "" {
		overlayRef = req.DefaultRef
	}

	overlay, err := fetch(overlayRef)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("channel degraded for ref %s: %v", overlayRef, err))
	} else {
		layer := layerBase
		if overlayRef != req.DefaultRef {
			layer = layerOverlay
		}
		out = append(out, TagSourceLayer(overlay, layer)...)
	}

	if req.DefaultRef != "" && overlayRef != req.DefaultRef {
		base, err := fetch(req.DefaultRef)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("channel degraded for base ref %s: %v", req.DefaultRef, err))
		} else {
			out = append(out, TagSourceLayer(base, layerBase)...)
		}
	}

	return out, warnings
}

// retrieveSemantic opens the vector index for req's overlay ref (or
// base ref alone, when not in overlay mode), embeds the query text,
// and runs the semantic channel, reporting degradation per the
// spec's semantic_fallback contract.
func (p *Pipeline) retrieveSemantic(ctx context.Context, req Request, budgets Budgets) (candidates []Candidate, triggered, fallback bool, reason string, warning string) {
	ref := req.Ref
	if ref == "" {
		ref = req.DefaultRef
	}

	idx, err := p.VectorOpener(ref)
	if err != nil {
		return nil, false, true, "semantic_backend_unavailable", fmt.Sprintf("semantic channel unavailable: %v", err)
	}
	if idx.Len() == 0 {
		return nil, false, false, "no_vectors_indexed", ""
	}

	embedding, err := p.Embedder.Embed(ctx, req.QueryText)
	if err != nil {
		return nil, true, true, "semantic_backend_error", fmt.Sprintf("embedding call failed: %v", err)
	}

	out, err := SemanticChannel(idx, p.Store, p.ProjectID, ref, embedding, budgets.SemanticLimitUsed)
	if err != nil {
		return nil, true, true, "semantic_backend_error", fmt.Sprintf("semantic search failed: %v", err)
	}

	var warn string
	if idx.Warning != nil {
		warn = idx.Warning.Message
	}
	return TagSourceLayer(out, layerOverlay), true, false, "", warn
}

// tombstonedPaths returns the set of paths tombstoned on req.Ref, used
// to suppress base-layer candidates that a branch has deleted or
// replaced.
func (p *Pipeline) tombstonedPaths(req Request) map[string]bool {
	if req.Ref == "" || req.Ref == req.DefaultRef {
		return nil
	}
	tombs, err := p.Store.ListTombstones(p.ProjectID, req.Ref)
	if err != nil {
		return nil
	}
	out := make(map[string]bool, len(tombs))
	for path := range tombs {
		out[path] = true
	}
	return out
}

// filterTombstoned drops base-layer candidates whose path is
// tombstoned by the overlay.
func filterTombstoned(channels [][]Candidate, tombstones map[string]bool) [][]Candidate {
	if len(tombstones) == 0 {
		return channels
	}
	out := make([][]Candidate, len(channels))
	for i, cs := range channels {
		filtered := make([]Candidate, 0, len(cs))
		for _, c := range cs {
			if c.SourceLayer == layerBase && tombstones[c.Path] {
				continue
			}
			filtered = append(filtered, c)
		}
		out[i] = filtered
	}
	return out
}

// estimateLexicalConfidence is a cheap pre-retrieval signal for plan
// selection: symbol- and path-shaped queries are assumed to be
// confident lexical matches; natural language queries are assumed low
// confidence, favoring semantic fallback.
func estimateLexicalConfidence(queryText string) float64 {
	switch Classify(queryText) {
	case IntentSymbol, IntentPath:
		return 0.9
	case IntentError:
		return 0.6
	default:
		return 0.3
	}
}
