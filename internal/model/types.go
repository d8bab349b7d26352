package model

import "time"

// Answer is a single yes/no judgment with a short justification, produced
// by the evidence analyzer for one question.
type Answer struct {
	// Yes is true when the model answered "yes" for the question.
	Yes bool `json:"yes"`
	// Reasoning is a short justification for the answer.
	Reasoning string `json:"reasoning"`
}

// Relevance is the deterministic tag derived from the yes-ratio of an
// evidence analysis. It is computed locally, never taken from the model.
type Relevance string

const (
	RelevanceRelevant   Relevance = "Relevant"
	RelevancePartial    Relevance = "Partially Relevant"
	RelevanceIrrelevant Relevance = "Irrelevant"
)

// RelevanceFor returns the relevance tag for a set of answers:
// at least half yes is Relevant, any yes is Partially Relevant,
// otherwise Irrelevant.
func RelevanceFor(answers []Answer) Relevance {
	if len(answers) == 0 {
		return RelevanceIrrelevant
	}
	yes := 0
	for _, a := range answers {
		if a.Yes {
			yes++
		}
	}
	switch {
	case yes*2 >= len(answers):
		return RelevanceRelevant
	case yes > 0:
		return RelevancePartial
	default:
		return RelevanceIrrelevant
	}
}

// EvidenceResult is the outcome of analyzing one evidence image against an
// ordered list of questions. Answers preserve question order.
type EvidenceResult struct {
	Answers   []Answer  `json:"answers"`
	Relevance Relevance `json:"relevance"`

	Provenance Provenance `json:"provenance"`
}

// PIICategory identifies the kind of personally identifiable information
// a flag was raised for.
type PIICategory string

const (
	PIIEmail    PIICategory = "email"
	PIIPhone    PIICategory = "phone"
	PIIIDNumber PIICategory = "id_number"
	PIIName     PIICategory = "name"
)

// PIIFlag marks detected personally identifiable information in a statement
// or in the model's reasoning about it.
type PIIFlag struct {
	// Category is the kind of PII detected.
	Category PIICategory `json:"category"`
	// Match is the matched span of text.
	Match string `json:"match"`
}

// Classification is the thematic label assigned to a single challenge
// statement, with any PII detected in it.
type Classification struct {
	// Statement is the original challenge statement, verbatim.
	Statement string `json:"statement"`
	// ThemeID is the 1-based identifier of the assigned theme.
	ThemeID int `json:"theme_id"`
	// ThemeName is the canonical name of the assigned theme.
	ThemeName string `json:"theme_name"`
	// Reasoning is the model's rationale for the assignment, if provided.
	Reasoning string `json:"reasoning,omitempty"`
	// PII lists flags raised by the local scanner. The scan is deterministic:
	// identical input always yields identical flags.
	PII []PIIFlag `json:"pii,omitempty"`
}

// ThematicResult is the outcome of classifying a batch of challenge
// statements. Classifications preserve statement order.
type ThematicResult struct {
	Classifications []Classification `json:"classifications"`

	Provenance Provenance `json:"provenance"`
}

// Tier is the ordered quality category derived from the three story
// criterion scores. Ordering: NeedsImprovement < Developing < Good < Excellent.
type Tier string

const (
	TierExcellent        Tier = "Excellent"
	TierGood             Tier = "Good"
	TierDeveloping       Tier = "Developing"
	TierNeedsImprovement Tier = "Needs Improvement"
)

// Criterion is one scored dimension of a story, with the model's
// justification for the score.
type Criterion struct {
	// Score is in [0.0, 1.0].
	Score float64 `json:"score"`
	// Justification explains the score.
	Justification string `json:"justification"`
}

// ScoreRecord is the outcome of rating a story narrative. Composite and
// Tier are recomputed locally from the three criterion scores so that
// identical score triples always yield identical tiers, regardless of
// what the model claims.
type ScoreRecord struct {
	// Language is the primary language the model detected in the document.
	Language string `json:"document_language"`

	Impact Criterion `json:"impact"`
	Issue  Criterion `json:"issue"`
	Action Criterion `json:"action"`

	// Composite is impact*0.4 + issue*0.3 + action*0.3.
	Composite float64 `json:"composite_score"`
	Tier      Tier    `json:"tier"`

	// Summary is a brief overall assessment of the story.
	Summary string `json:"overall_summary"`

	Provenance Provenance `json:"provenance"`
}

// ComputeComposite returns the weighted composite of the three criterion
// scores, rounded to two decimals.
func ComputeComposite(impact, issue, action float64) float64 {
	c := impact*0.4 + issue*0.3 + action*0.3
	return float64(int(c*100+0.5)) / 100
}

// TierFor derives the tier from the three criterion scores. The rule is a
// pure function: every score must clear the tier's floor.
func TierFor(impact, issue, action float64) Tier {
	min := impact
	if issue < min {
		min = issue
	}
	if action < min {
		min = action
	}
	switch {
	case min >= 0.75:
		return TierExcellent
	case min >= 0.60:
		return TierGood
	case min >= 0.40:
		return TierDeveloping
	default:
		return TierNeedsImprovement
	}
}

// Provenance records which backend produced a result and how long the
// analysis took, for reporting.
type Provenance struct {
	// Provider is the provider family that produced the result
	// (e.g., "gemini", "anthropic", "openai").
	Provider string `json:"provider"`
	// Model is the model name used.
	Model string `json:"model"`
	// AnalyzedAt is when the analysis completed.
	AnalyzedAt time.Time `json:"analyzed_at"`
	// DurationMs is the wall-clock time in milliseconds for the full
	// analysis, including document fetches and retries.
	DurationMs int64 `json:"duration_ms"`
}
