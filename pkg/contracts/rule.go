package contracts

// ComplianceRule is a domain rule owned by an external rule store. The
// scorer treats rules as read-only: it never mutates or persists them.
type ComplianceRule struct {
	ID           string   `json:"id"`
	RuleText     string   `json:"rule_text"`
	Regulation   string   `json:"regulation"`
	Jurisdiction string   `json:"jurisdiction"`
	Domain       Domain   `json:"domain"`
	Severity     Severity `json:"severity"`
	Keywords     []string `json:"keywords,omitempty"`
	Patterns     []string `json:"patterns,omitempty"` // regex source strings

	// Condition is an optional CEL expression evaluated against the
	// content facts; a true result emits a semantic_match violation.
	Condition string `json:"condition,omitempty"`

	IsActive bool `json:"is_active"`
}

// AppliesTo reports whether the rule is active and scoped to the given
// domain and jurisdiction. A rule jurisdiction of "*" or "global" matches
// every jurisdiction, as does an empty requested jurisdiction.
func (r ComplianceRule) AppliesTo(domain Domain, jurisdiction string) bool {
	if !r.IsActive || r.Domain != domain {
		return false
	}
	switch r.Jurisdiction {
	case "", "*", "global":
		return true
	}
	return jurisdiction == "" || r.Jurisdiction == jurisdiction
}
