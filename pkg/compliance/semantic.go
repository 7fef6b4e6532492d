package compliance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/verityhq/verdict/pkg/contracts"
)

// checkDisclosures emits one medium-severity violation for each mandatory
// disclosure fragment the text does not contain. Absence findings have no
// match location.
func (s *Scorer) checkDisclosures(domain contracts.Domain, text, source string) []contracts.ComplianceViolation {
	lower := strings.ToLower(text)

	var out []contracts.ComplianceViolation
	for _, d := range s.policy.Disclosures[domain] {
		if strings.Contains(lower, strings.ToLower(d.Fragment)) {
			continue
		}
		out = append(out, contracts.ComplianceViolation{
			Issue: contracts.Issue{
				ID:           uuid.NewString(),
				Type:         contracts.IssueComplianceViolation,
				Severity:     contracts.SeverityMedium,
				Description:  fmt.Sprintf("Required disclosure missing: %q", d.Fragment),
				Confidence:   s.policy.SemanticConfidence,
				ModuleSource: source,
			},
			RuleID:              "semantic:missing-disclosure",
			ViolationType:       contracts.ViolationSemanticMatch,
			RegulatoryReference: d.Reference,
			SuggestedFix:        fmt.Sprintf("Add a disclosure covering %q.", d.Fragment),
		})
	}
	return out
}

// checkContradictions emits one violation per contradiction pair whose
// terms both appear, located at the first occurrence of the positive term.
func (s *Scorer) checkContradictions(text, source string) []contracts.ComplianceViolation {
	lower := strings.ToLower(text)

	var out []contracts.ComplianceViolation
	for _, c := range s.policy.Contradictions {
		pos := strings.Index(lower, strings.ToLower(c.Positive))
		if pos < 0 || !strings.Contains(lower, strings.ToLower(c.Negative)) {
			continue
		}
		end := pos + len(c.Positive)
		out = append(out, contracts.ComplianceViolation{
			Issue: contracts.Issue{
				ID:           uuid.NewString(),
				Type:         contracts.IssueComplianceViolation,
				Severity:     c.Severity,
				Location:     contracts.Location{Start: pos, End: end},
				Description:  fmt.Sprintf("Contradictory statements: %q and %q both appear", c.Positive, c.Negative),
				Evidence:     []string{snippet(text, pos, end, 40)},
				Confidence:   s.policy.SemanticConfidence,
				ModuleSource: source,
			},
			RuleID:        "semantic:contradiction",
			ViolationType: contracts.ViolationSemanticMatch,
			SuggestedFix:  fmt.Sprintf("Resolve the conflict between %q and %q.", c.Positive, c.Negative),
		})
	}
	return out
}
