package results

import (
	"fmt"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Advisory texts per issue type. The counts are prepended at build time.
var typeAdvisories = map[contracts.IssueType]string{
	contracts.IssueFactualError:         "factual error(s) detected. Review and verify against authoritative sources.",
	contracts.IssueLogicalInconsistency: "logical inconsistency(ies) detected. Review document structure and argumentation.",
	contracts.IssueComplianceViolation:  "compliance violation(s) detected. Consult your compliance team before use.",
	contracts.IssueFormattingIssue:      "formatting issue(s) detected. Apply the relevant document formatting standards.",
	contracts.IssueOther:                "additional issue(s) detected. Manual review recommended.",
}

// Risk-tier directives. Low-risk results carry no directive.
var riskDirectives = map[contracts.RiskLevel]string{
	contracts.RiskCritical: "CRITICAL: Do not use this content without addressing all identified issues.",
	contracts.RiskHigh:     "HIGH RISK: Significant issues found. Thorough review required before use.",
	contracts.RiskMedium:   "MEDIUM RISK: Review identified issues before publication.",
}

// issueTypeOrder fixes the advisory ordering so recommendations are stable
// across runs.
var issueTypeOrder = []contracts.IssueType{
	contracts.IssueFactualError,
	contracts.IssueLogicalInconsistency,
	contracts.IssueComplianceViolation,
	contracts.IssueFormattingIssue,
	contracts.IssueOther,
}

// buildRecommendations assembles the human-readable advice attached to a
// result: one line per module that found issues (in dispatch order), one
// advisory per issue type present, and the directive for the final risk
// tier. The list is de-duplicated and blank lines are dropped.
func buildRecommendations(moduleResults []contracts.ValidationResult, issues []contracts.Issue, risk contracts.RiskLevel) []string {
	var lines []string

	for _, mr := range moduleResults {
		if len(mr.Issues) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s module detected %d issue(s)", mr.ModuleID, len(mr.Issues)))
	}

	counts := make(map[contracts.IssueType]int, len(issueTypeOrder))
	for _, issue := range issues {
		counts[issue.Type]++
	}
	for _, it := range issueTypeOrder {
		if n := counts[it]; n > 0 {
			lines = append(lines, fmt.Sprintf("%d %s", n, typeAdvisories[it]))
		}
	}

	if directive := riskDirectives[risk]; directive != "" {
		lines = append(lines, directive)
	}

	return dedupe(lines)
}

// dedupe drops blank and repeated lines while preserving first-seen order.
func dedupe(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := lines[:0]
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
