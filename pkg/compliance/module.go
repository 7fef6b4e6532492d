package compliance

import (
	"context"
	"time"

	"github.com/verityhq/verdict/pkg/contracts"
)

// ModuleID returns the module identifier a domain's compliance module
// reports in results and issue sources.
func ModuleID(domain contracts.Domain) string {
	return "compliance-" + string(domain)
}

// Module adapts a Scorer to the domain module contract consumed by the
// verification engine.
type Module struct {
	scorer       *Scorer
	domain       contracts.Domain
	jurisdiction string
	version      string
}

// NewModule wraps scorer as the validation module for domain. An empty
// jurisdiction applies every rule regardless of region; an empty version
// defaults to 1.0.0.
func NewModule(scorer *Scorer, domain contracts.Domain, jurisdiction, version string) *Module {
	if version == "" {
		version = "1.0.0"
	}
	return &Module{
		scorer:       scorer,
		domain:       domain,
		jurisdiction: jurisdiction,
		version:      version,
	}
}

// Domain returns the domain this module validates.
func (m *Module) Domain() contracts.Domain { return m.domain }

// Version returns the module's semantic version.
func (m *Module) Version() string { return m.version }

// ModuleID returns the identifier this module stamps on its results.
func (m *Module) ModuleID() string { return ModuleID(m.domain) }

// ValidateContent runs the compliance check and folds it into the shape
// the aggregator consumes: violations become issues and the compliance
// score doubles as the module confidence.
func (m *Module) ValidateContent(ctx context.Context, content contracts.ParsedContent) (contracts.ValidationResult, error) {
	start := time.Now()

	check, err := m.scorer.CheckCompliance(ctx, content, m.domain, m.jurisdiction)
	if err != nil {
		return contracts.ValidationResult{}, err
	}

	issues := make([]contracts.Issue, len(check.Violations))
	for i, v := range check.Violations {
		issues[i] = v.Issue
	}

	return contracts.ValidationResult{
		ModuleID:       ModuleID(m.domain),
		Issues:         issues,
		Confidence:     check.ComplianceScore,
		ProcessingTime: time.Since(start),
		Metadata: map[string]any{
			"overall_risk":     string(check.OverallRisk),
			"compliance_score": check.ComplianceScore,
			"checked_rules":    check.CheckedRules,
			"applicable_rules": check.ApplicableRules,
			"violation_count":  len(check.Violations),
		},
	}, nil
}
