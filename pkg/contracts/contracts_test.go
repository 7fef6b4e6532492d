package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainValid(t *testing.T) {
	for _, d := range Domains() {
		assert.True(t, d.Valid(), "domain %q", d)
	}
	assert.False(t, Domain("astrology").Valid())
	assert.False(t, Domain("").Valid())
}

func TestDomainsStableOrder(t *testing.T) {
	assert.Equal(t, []Domain{DomainLegal, DomainFinancial, DomainHealthcare, DomainInsurance}, Domains())
}

func TestUrgencyValid(t *testing.T) {
	assert.True(t, UrgencyNormal.Valid())
	assert.True(t, UrgencyCritical.Valid())
	assert.False(t, Urgency("whenever").Valid())
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
	assert.Equal(t, -1, Severity("mild").Rank())
}

func TestRiskLevelRankOrdering(t *testing.T) {
	assert.Less(t, RiskLow.Rank(), RiskMedium.Rank())
	assert.Less(t, RiskMedium.Rank(), RiskHigh.Rank())
	assert.Less(t, RiskHigh.Rank(), RiskCritical.Rank())
	assert.Equal(t, -1, RiskLevel("severe").Rank())
}

func TestVerificationStateTerminal(t *testing.T) {
	assert.False(t, StateProcessing.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestAppliesTo(t *testing.T) {
	base := ComplianceRule{
		ID:       "r-1",
		Domain:   DomainFinancial,
		IsActive: true,
	}

	tests := []struct {
		name         string
		mutate       func(*ComplianceRule)
		domain       Domain
		jurisdiction string
		want         bool
	}{
		{"active same domain", func(r *ComplianceRule) {}, DomainFinancial, "", true},
		{"inactive", func(r *ComplianceRule) { r.IsActive = false }, DomainFinancial, "", false},
		{"other domain", func(r *ComplianceRule) {}, DomainLegal, "", false},
		{"star matches any", func(r *ComplianceRule) { r.Jurisdiction = "*" }, DomainFinancial, "eu", true},
		{"global matches any", func(r *ComplianceRule) { r.Jurisdiction = "global" }, DomainFinancial, "us", true},
		{"scoped rule empty query", func(r *ComplianceRule) { r.Jurisdiction = "eu" }, DomainFinancial, "", true},
		{"scoped rule matching query", func(r *ComplianceRule) { r.Jurisdiction = "eu" }, DomainFinancial, "eu", true},
		{"scoped rule other query", func(r *ComplianceRule) { r.Jurisdiction = "eu" }, DomainFinancial, "us", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := base
			tt.mutate(&rule)
			assert.Equal(t, tt.want, rule.AppliesTo(tt.domain, tt.jurisdiction))
		})
	}
}

func TestSortIssuesSeverityThenConfidence(t *testing.T) {
	issues := []Issue{
		{ID: "a", Severity: SeverityLow, Confidence: 90},
		{ID: "b", Severity: SeverityCritical, Confidence: 50},
		{ID: "c", Severity: SeverityMedium, Confidence: 70},
		{ID: "d", Severity: SeverityMedium, Confidence: 95},
	}

	SortIssues(issues)

	got := make([]string, len(issues))
	for i, issue := range issues {
		got[i] = issue.ID
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, got)
}

func TestSortIssuesIsStable(t *testing.T) {
	issues := []Issue{
		{ID: "first", Severity: SeverityHigh, Confidence: 80},
		{ID: "second", Severity: SeverityHigh, Confidence: 80},
	}

	SortIssues(issues)

	assert.Equal(t, "first", issues[0].ID)
	assert.Equal(t, "second", issues[1].ID)
}

func TestOptionsEncodeProcessingTimeAsMillis(t *testing.T) {
	threshold := 75
	data, err := json.Marshal(Options{
		ConfidenceThreshold: &threshold,
		MaxProcessingTime:   1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"confidence_threshold":75,"max_processing_time_ms":1500}`, string(data))

	var decoded Options
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.ConfidenceThreshold)
	assert.Equal(t, 75, *decoded.ConfidenceThreshold)
	assert.Equal(t, int64(1500), decoded.MaxProcessingTime.Milliseconds())
}
