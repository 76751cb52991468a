package query

// Plan is the retrieval strategy chosen for one query.
type Plan string

const (
	PlanLexicalFast     Plan = "lexical_fast"
	PlanHybridStandard  Plan = "hybrid_standard"
	PlanSemanticDeep    Plan = "semantic_deep"
)

// Fanout budget floors and caps, per the spec's fanout budget contract.
const (
	SemanticLimitFloor = 20
	SemanticLimitCap   = 1000
	LexicalFanoutFloor = 40
	LexicalFanoutCap   = 2000
	SemanticFanoutFloor = 30
	SemanticFanoutCap   = 1000

	// shortCircuitConfidence is the lexical-confidence threshold above
	// which semantic retrieval is skipped outright.
	shortCircuitConfidence = 0.75
	// lowConfidenceThreshold marks a natural_language query as
	// uncertain enough to be worth the semantic_deep plan.
	lowConfidenceThreshold = 0.4
)

// PlanDecision records the chosen plan and why, reported in response
// metadata.
type PlanDecision struct {
	Plan   Plan
	Reason string
}

// SelectPlan picks lexical_fast, hybrid_standard or semantic_deep from
// intent, an estimate of lexical-match confidence in [0,1], and whether
// a semantic runtime (vector index) is available at all.
func SelectPlan(intent Intent, lexicalConfidence float64, semanticAvailable bool) PlanDecision {
	if !semanticAvailable {
		return PlanDecision{Plan: PlanLexicalFast, Reason: "semantic_unavailable"}
	}
	if lexicalConfidence >= shortCircuitConfidence {
		return PlanDecision{Plan: PlanLexicalFast, Reason: "lexical_confidence_short_circuit"}
	}
	if intent == IntentNatural && lexicalConfidence < lowConfidenceThreshold {
		return PlanDecision{Plan: PlanSemanticDeep, Reason: "low_confidence_natural_language"}
	}
	if intent == IntentSymbol || intent == IntentPath {
		return PlanDecision{Plan: PlanHybridStandard, Reason: "symbol_or_path_intent"}
	}
	return PlanDecision{Plan: PlanHybridStandard, Reason: "default_hybrid"}
}

// clampFanout applies the floor/cap pair to a requested budget,
// returning the effective (used) value.
func clampFanout(requested, floor, ceiling int) int {
	if requested < floor {
		return floor
	}
	if requested > ceiling {
		return ceiling
	}
	return requested
}

// Budgets holds the effective fanout values for one query after
// applying the spec's floor/cap contract.
type Budgets struct {
	SemanticLimitUsed  int
	LexicalFanoutUsed  int
	SemanticFanoutUsed int
}

// ResolveBudgets clamps requested budgets (0 means "use the floor") to
// the spec's contract.
func ResolveBudgets(requestedSemanticLimit, requestedLexicalFanout, requestedSemanticFanout int) Budgets {
	return Budgets{
		SemanticLimitUsed:  clampFanout(requestedSemanticLimit, SemanticLimitFloor, SemanticLimitCap),
		LexicalFanoutUsed:  clampFanout(requestedLexicalFanout, LexicalFanoutFloor, LexicalFanoutCap),
		SemanticFanoutUsed: clampFanout(requestedSemanticFanout, SemanticFanoutFloor, SemanticFanoutCap),
	}
}
