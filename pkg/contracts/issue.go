package contracts

import "sort"

// IssueType categorizes a finding.
type IssueType string

const (
	IssueFactualError         IssueType = "factual_error"
	IssueLogicalInconsistency IssueType = "logical_inconsistency"
	IssueComplianceViolation  IssueType = "compliance_violation"
	IssueFormattingIssue      IssueType = "formatting_issue"
	IssueOther                IssueType = "other"
)

// Severity grades how damaging a finding is. Severity and confidence are
// independent axes: a low-confidence critical finding is valid and still
// escalates risk.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities: low=0 … critical=3. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Location is a half-open [Start, End) character span in the extracted text.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Issue is a located, severity-tagged finding produced by a module.
type Issue struct {
	ID           string    `json:"id"`
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	Location     Location  `json:"location"`
	Description  string    `json:"description"`
	Evidence     []string  `json:"evidence,omitempty"`
	Confidence   int       `json:"confidence"` // 0-100
	ModuleSource string    `json:"module_source"`
}

// SortIssues orders issues by severity descending, then confidence
// descending. The sort is stable so same-grade issues keep module order.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity.Rank() != issues[j].Severity.Rank() {
			return issues[i].Severity.Rank() > issues[j].Severity.Rank()
		}
		return issues[i].Confidence > issues[j].Confidence
	})
}

// ViolationType records which matching stage produced a compliance violation.
type ViolationType string

const (
	ViolationKeywordMatch  ViolationType = "keyword_match"
	ViolationPatternMatch  ViolationType = "pattern_match"
	ViolationSemanticMatch ViolationType = "semantic_match"
)

// ComplianceViolation is an Issue specialized with regulatory metadata.
type ComplianceViolation struct {
	Issue

	RuleID              string          `json:"rule_id"`
	Rule                *ComplianceRule `json:"rule,omitempty"` // snapshot at match time
	ViolationType       ViolationType   `json:"violation_type"`
	RegulatoryReference string          `json:"regulatory_reference"`
	SuggestedFix        string          `json:"suggested_fix,omitempty"`
}
