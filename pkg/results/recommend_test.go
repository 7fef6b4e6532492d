package results

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestBuildRecommendations(t *testing.T) {
	moduleResults := []contracts.ValidationResult{
		{ModuleID: "compliance-healthcare", Issues: issuesOf(contracts.SeverityHigh, contracts.SeverityMedium)},
		{ModuleID: "factcheck", Issues: nil}, // clean module contributes no line
	}
	issues := []contracts.Issue{
		{Type: contracts.IssueComplianceViolation, Severity: contracts.SeverityHigh},
		{Type: contracts.IssueComplianceViolation, Severity: contracts.SeverityMedium},
		{Type: contracts.IssueFactualError, Severity: contracts.SeverityMedium},
	}

	lines := buildRecommendations(moduleResults, issues, contracts.RiskHigh)

	assert.Equal(t, []string{
		"compliance-healthcare module detected 2 issue(s)",
		"1 factual error(s) detected. Review and verify against authoritative sources.",
		"2 compliance violation(s) detected. Consult your compliance team before use.",
		"HIGH RISK: Significant issues found. Thorough review required before use.",
	}, lines)
}

func TestBuildRecommendationsLowRiskHasNoDirective(t *testing.T) {
	lines := buildRecommendations(nil, nil, contracts.RiskLow)
	assert.Empty(t, lines)
}

func TestBuildRecommendationsDeduplicates(t *testing.T) {
	moduleResults := []contracts.ValidationResult{
		{ModuleID: "m", Issues: issuesOf(contracts.SeverityLow)},
		{ModuleID: "m", Issues: issuesOf(contracts.SeverityLow)},
	}

	lines := buildRecommendations(moduleResults, nil, contracts.RiskMedium)

	assert.Equal(t, []string{
		"m module detected 1 issue(s)",
		"MEDIUM RISK: Review identified issues before publication.",
	}, lines)
}

func TestDedupeDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a", ""}))
}
