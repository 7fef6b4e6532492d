package results

import (
	"time"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Policy collects the aggregation constants: domain confidence weights and
// the risk classification thresholds. One injectable struct so scoring
// policy is testable and swappable without touching the algorithm.
type Policy struct {
	// DomainWeights scale the aggregated confidence per request domain.
	// The weighted value is clamped to [0,100] and rounded, and the risk
	// level is recomputed from it — weighting can move a result across a
	// risk tier boundary.
	DomainWeights map[contracts.Domain]float64 `json:"domain_weights" yaml:"domain_weights"`

	// Risk classification thresholds over aggregated confidence.
	CriticalBelow int `json:"critical_below" yaml:"critical_below"`
	HighBelow     int `json:"high_below" yaml:"high_below"`
	MediumBelow   int `json:"medium_below" yaml:"medium_below"`

	// CleanLowAt is the clean-document short-circuit: zero issues and
	// confidence at or above this value is unconditionally low risk.
	CleanLowAt int `json:"clean_low_at" yaml:"clean_low_at"`

	// CacheTTL bounds how long formatted results stay reusable.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultPolicy returns the standard aggregation policy.
func DefaultPolicy() Policy {
	return Policy{
		DomainWeights: map[contracts.Domain]float64{
			contracts.DomainFinancial:  1.2,
			contracts.DomainHealthcare: 1.1,
			contracts.DomainLegal:      1.0,
			contracts.DomainInsurance:  1.0,
		},
		CriticalBelow: 50,
		HighBelow:     70,
		MediumBelow:   85,
		CleanLowAt:    90,
		CacheTTL:      3600 * time.Second,
	}
}

// Weight returns the confidence weight for a domain, defaulting to 1.0 for
// domains without an entry.
func (p Policy) Weight(domain contracts.Domain) float64 {
	if w, ok := p.DomainWeights[domain]; ok {
		return w
	}
	return 1.0
}

// ClassifyRisk derives the risk level from the issue set and aggregated
// confidence. A clean document with very high confidence short-circuits to
// low before the severity ladder applies.
func (p Policy) ClassifyRisk(issues []contracts.Issue, confidence int) contracts.RiskLevel {
	if len(issues) == 0 && confidence >= p.CleanLowAt {
		return contracts.RiskLow
	}

	anyCritical, anyHigh := false, false
	for _, issue := range issues {
		switch issue.Severity {
		case contracts.SeverityCritical:
			anyCritical = true
		case contracts.SeverityHigh:
			anyHigh = true
		}
	}

	switch {
	case anyCritical || confidence < p.CriticalBelow:
		return contracts.RiskCritical
	case anyHigh || confidence < p.HighBelow:
		return contracts.RiskHigh
	case len(issues) > 0 || confidence < p.MediumBelow:
		return contracts.RiskMedium
	default:
		return contracts.RiskLow
	}
}
