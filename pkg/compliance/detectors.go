package compliance

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/verityhq/verdict/pkg/contracts"
)

// detectorEntry is one fixed signal in an industry detector table.
type detectorEntry struct {
	id          string
	description string
	re          *regexp.Regexp
	vtype       contracts.ViolationType
	severity    contracts.Severity
	confidence  int
	reference   string
	fix         string
}

func patternEntry(id, description, pattern string, severity contracts.Severity, confidence int, reference, fix string) detectorEntry {
	return detectorEntry{
		id:          id,
		description: description,
		re:          regexp.MustCompile(pattern),
		vtype:       contracts.ViolationPatternMatch,
		severity:    severity,
		confidence:  confidence,
		reference:   reference,
		fix:         fix,
	}
}

func keywordEntry(id, description, keyword string, severity contracts.Severity, confidence int, reference, fix string) detectorEntry {
	return detectorEntry{
		id:          id,
		description: description,
		re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword)),
		vtype:       contracts.ViolationKeywordMatch,
		severity:    severity,
		confidence:  confidence,
		reference:   reference,
		fix:         fix,
	}
}

// Detector is a fixed, non-configurable signal table for one industry.
// Unlike stored rules, detector tables never change at runtime; their
// patterns compile at package init and a bad table is a programming error.
type Detector struct {
	name    string
	entries []detectorEntry
}

// Name returns the detector's table name.
func (d *Detector) Name() string { return d.name }

// Run scans text against the detector table and returns violations in the
// same shape rule matches produce. Detector hits carry no rule snapshot;
// their RuleID names the table entry.
func (d *Detector) Run(text, source string) []contracts.ComplianceViolation {
	var out []contracts.ComplianceViolation
	for _, e := range d.entries {
		for _, loc := range e.re.FindAllStringIndex(text, -1) {
			out = append(out, contracts.ComplianceViolation{
				Issue: contracts.Issue{
					ID:           uuid.NewString(),
					Type:         contracts.IssueComplianceViolation,
					Severity:     e.severity,
					Location:     contracts.Location{Start: loc[0], End: loc[1]},
					Description:  e.description,
					Evidence:     []string{snippet(text, loc[0], loc[1], 40)},
					Confidence:   e.confidence,
					ModuleSource: source,
				},
				RuleID:              fmt.Sprintf("detector:%s:%s", d.name, e.id),
				ViolationType:       e.vtype,
				RegulatoryReference: e.reference,
				SuggestedFix:        e.fix,
			})
		}
	}
	return out
}

// detectors maps each domain to its industry detector.
var detectors = map[contracts.Domain]*Detector{
	contracts.DomainHealthcare: phiDetector,
	contracts.DomainFinancial:  financialStatementDetector,
	contracts.DomainLegal:      dataProtectionDetector,
	contracts.DomainInsurance:  claimsPracticeDetector,
}

// DetectorFor returns the fixed industry detector for a domain, or nil if
// the domain has none.
func DetectorFor(domain contracts.Domain) *Detector {
	return detectors[domain]
}

var phiDetector = &Detector{
	name: "phi",
	entries: []detectorEntry{
		patternEntry("ssn",
			"Unmasked Social Security number",
			`\b\d{3}-\d{2}-\d{4}\b`,
			contracts.SeverityCritical, 98,
			"HIPAA 45 CFR 164.514",
			"Mask or remove the Social Security number."),
		patternEntry("mrn",
			"Medical record number",
			`(?i)\b(?:mrn|medical record number)\s*[:#]?\s*\d{6,10}\b`,
			contracts.SeverityHigh, 92,
			"HIPAA 45 CFR 164.514",
			"Remove the medical record number."),
		patternEntry("dob",
			"Date of birth in patient context",
			`(?i)\b(?:dob|date of birth)\s*[:\-]?\s*\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b`,
			contracts.SeverityHigh, 90,
			"HIPAA 45 CFR 164.514",
			"Remove or generalize the date of birth."),
		keywordEntry("hiv-status",
			"Highly sensitive health condition disclosure",
			"hiv status",
			contracts.SeverityCritical, 95,
			"HIPAA 45 CFR 164.508",
			"Remove condition-level detail unless expressly authorized."),
	},
}

var financialStatementDetector = &Detector{
	name: "financial-statement",
	entries: []detectorEntry{
		keywordEntry("guaranteed-returns",
			"Promise of guaranteed investment returns",
			"guaranteed returns",
			contracts.SeverityHigh, 92,
			"FINRA 2210(d)(1)(B)",
			"Remove or qualify the performance promise."),
		keywordEntry("risk-free",
			"Investment described as risk-free",
			"risk-free investment",
			contracts.SeverityHigh, 90,
			"SEC Rule 156",
			"Remove the risk-free characterization."),
		keywordEntry("insider-information",
			"Reference to trading on insider information",
			"insider information",
			contracts.SeverityCritical, 96,
			"SEC Rule 10b-5",
			"Remove the reference and escalate to compliance."),
		patternEntry("account-number",
			"Unmasked account number",
			`(?i)\b(?:account|acct)\.?\s*(?:no|number|#)\.?\s*[:#]?\s*\d{6,17}\b`,
			contracts.SeverityHigh, 93,
			"GLBA Safeguards Rule",
			"Mask all but the last four digits."),
	},
}

var dataProtectionDetector = &Detector{
	name: "data-protection",
	entries: []detectorEntry{
		patternEntry("email-address",
			"Personal email address",
			`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`,
			contracts.SeverityMedium, 88,
			"GDPR Art. 4(1)",
			"Redact the email address."),
		keywordEntry("sell-personal-information",
			"Sale of personal information",
			"sell personal information",
			contracts.SeverityCritical, 95,
			"CCPA 1798.120",
			"Remove the statement or add the required opt-out notice."),
		keywordEntry("without-consent",
			"Data processing described without a lawful basis",
			"without consent",
			contracts.SeverityHigh, 90,
			"GDPR Art. 6(1)",
			"State the lawful basis for the processing."),
	},
}

var claimsPracticeDetector = &Detector{
	name: "claims-practice",
	entries: []detectorEntry{
		keywordEntry("guaranteed-acceptance",
			"Unconditional acceptance promise",
			"guaranteed acceptance",
			contracts.SeverityHigh, 90,
			"NAIC Model 880 §4",
			"Qualify the acceptance terms."),
		patternEntry("policy-number",
			"Unmasked policy number",
			`(?i)\bpolicy\s*(?:no|number|#)\.?\s*[:#]?\s*[A-Z0-9][A-Z0-9\-]{5,14}\b`,
			contracts.SeverityHigh, 91,
			"NAIC Model 670",
			"Mask the policy number."),
		keywordEntry("never-deny",
			"Misleading claims-handling promise",
			"we never deny claims",
			contracts.SeverityMedium, 85,
			"NAIC Model 880 §5",
			"Remove or substantiate the claims-handling statement."),
	},
}
