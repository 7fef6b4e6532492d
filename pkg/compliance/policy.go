package compliance

import (
	"github.com/verityhq/verdict/pkg/contracts"
)

// Disclosure is a mandatory phrase fragment for a domain. Text that does
// not contain the fragment receives one medium-severity violation.
type Disclosure struct {
	Fragment  string `json:"fragment" yaml:"fragment"`
	Reference string `json:"reference" yaml:"reference"`
}

// Contradiction is a pair of terms that must not both appear in the same
// document.
type Contradiction struct {
	Positive string             `json:"positive" yaml:"positive"`
	Negative string             `json:"negative" yaml:"negative"`
	Severity contracts.Severity `json:"severity" yaml:"severity"`
}

// Policy collects every scoring constant the scorer uses: contextual
// weights, confidence formula inputs, penalty tables, and the semantic
// check vocabularies. Keeping them in one injectable struct makes scoring
// behavior testable and swappable without touching the algorithm.
type Policy struct {
	// Contextual scoring of keyword matches.
	ContextWindow      int     `json:"context_window" yaml:"context_window"`
	ContextBase        float64 `json:"context_base" yaml:"context_base"`
	DomainTermBonus    float64 `json:"domain_term_bonus" yaml:"domain_term_bonus"`
	SensitiveTermBonus float64 `json:"sensitive_term_bonus" yaml:"sensitive_term_bonus"`
	BenignTermPenalty  float64 `json:"benign_term_penalty" yaml:"benign_term_penalty"`
	EmitThreshold      float64 `json:"emit_threshold" yaml:"emit_threshold"`

	DomainRiskTerms map[contracts.Domain][]string `json:"domain_risk_terms" yaml:"domain_risk_terms"`
	SensitiveTerms  []string                      `json:"sensitive_terms" yaml:"sensitive_terms"`
	BenignTerms     []string                      `json:"benign_terms" yaml:"benign_terms"`

	// Pattern match confidence.
	PatternBaseConfidence int                        `json:"pattern_base_confidence" yaml:"pattern_base_confidence"`
	ExactLengthBonus      int                        `json:"exact_length_bonus" yaml:"exact_length_bonus"`
	SeverityBonus         map[contracts.Severity]int `json:"severity_bonus" yaml:"severity_bonus"`
	MaxConfidence         int                        `json:"max_confidence" yaml:"max_confidence"`

	// Confidence assigned to semantic findings (missing disclosures,
	// contradictions), which have no match-derived confidence of their own.
	SemanticConfidence int `json:"semantic_confidence" yaml:"semantic_confidence"`

	// Compliance score penalties per violation severity.
	PenaltyTable map[contracts.Severity]int `json:"penalty_table" yaml:"penalty_table"`

	// Overall risk thresholds: more than HighViolationLimit high violations
	// escalates to critical; more than MediumViolationLimit medium
	// violations escalates to high.
	HighViolationLimit   int `json:"high_violation_limit" yaml:"high_violation_limit"`
	MediumViolationLimit int `json:"medium_violation_limit" yaml:"medium_violation_limit"`

	// Semantic check tables.
	Disclosures    map[contracts.Domain][]Disclosure `json:"disclosures" yaml:"disclosures"`
	Contradictions []Contradiction                   `json:"contradictions" yaml:"contradictions"`
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		ContextWindow:      100,
		ContextBase:        0.3,
		DomainTermBonus:    0.2,
		SensitiveTermBonus: 0.3,
		BenignTermPenalty:  0.2,
		EmitThreshold:      0.6,

		DomainRiskTerms: map[contracts.Domain][]string{
			contracts.DomainHealthcare: {"patient", "diagnosis", "treatment", "medical", "health"},
			contracts.DomainFinancial:  {"investment", "portfolio", "returns", "trading", "account"},
			contracts.DomainLegal:      {"contract", "liability", "lawsuit", "settlement", "attorney"},
			contracts.DomainInsurance:  {"policy", "claim", "premium", "coverage", "beneficiary"},
		},
		SensitiveTerms: []string{"personal", "confidential", "private", "sensitive"},
		BenignTerms:    []string{"system", "platform", "service", "application", "example", "sample"},

		PatternBaseConfidence: 85,
		ExactLengthBonus:      10,
		SeverityBonus: map[contracts.Severity]int{
			contracts.SeverityCritical: 5,
			contracts.SeverityHigh:     3,
			contracts.SeverityMedium:   1,
		},
		MaxConfidence: 100,

		SemanticConfidence: 90,

		PenaltyTable: map[contracts.Severity]int{
			contracts.SeverityCritical: 25,
			contracts.SeverityHigh:     15,
			contracts.SeverityMedium:   8,
			contracts.SeverityLow:      3,
		},

		HighViolationLimit:   2,
		MediumViolationLimit: 5,

		Disclosures: map[contracts.Domain][]Disclosure{
			contracts.DomainFinancial: {
				{Fragment: "past performance", Reference: "FINRA 2210(d)(1)"},
				{Fragment: "investment risk", Reference: "SEC Rule 156"},
			},
			contracts.DomainHealthcare: {
				{Fragment: "not medical advice", Reference: "FTC Health Products Guidance"},
			},
			contracts.DomainLegal: {
				{Fragment: "not legal advice", Reference: "ABA Model Rule 7.1"},
			},
			contracts.DomainInsurance: {
				{Fragment: "policy terms", Reference: "NAIC Model 880"},
			},
		},
		Contradictions: []Contradiction{
			{Positive: "guaranteed", Negative: "no guarantee", Severity: contracts.SeverityHigh},
			{Positive: "risk-free", Negative: "risk of loss", Severity: contracts.SeverityHigh},
			{Positive: "fully compliant", Negative: "non-compliant", Severity: contracts.SeverityHigh},
			{Positive: "confidential", Negative: "publicly available", Severity: contracts.SeverityMedium},
		},
	}
}
