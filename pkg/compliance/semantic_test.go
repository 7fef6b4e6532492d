package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestDisclosureChecks(t *testing.T) {
	scorer := newTestScorer(t, &stubStore{})

	t.Run("missing fragments each yield one medium violation", func(t *testing.T) {
		out := scorer.checkDisclosures(contracts.DomainFinancial,
			"Invest with us today.", "compliance-financial")
		require.Len(t, out, 2)
		for _, v := range out {
			assert.Equal(t, contracts.SeverityMedium, v.Severity)
			assert.Equal(t, contracts.ViolationSemanticMatch, v.ViolationType)
			assert.Equal(t, "semantic:missing-disclosure", v.RuleID)
			assert.NotEmpty(t, v.RegulatoryReference)
			assert.Contains(t, v.Description, "Required disclosure missing")
		}
	})

	t.Run("present fragments are case-insensitive", func(t *testing.T) {
		text := "PAST PERFORMANCE does not predict results. All holdings carry Investment Risk."
		out := scorer.checkDisclosures(contracts.DomainFinancial, text, "compliance-financial")
		assert.Empty(t, out)
	})

	t.Run("domains without disclosure tables are silent", func(t *testing.T) {
		out := scorer.checkDisclosures(contracts.Domain("maritime"), "anything", "m")
		assert.Empty(t, out)
	})
}

func TestContradictionChecks(t *testing.T) {
	scorer := newTestScorer(t, &stubStore{})

	t.Run("both terms present", func(t *testing.T) {
		text := "Returns are guaranteed. Note: there is no guarantee of principal."
		out := scorer.checkContradictions(text, "compliance-financial")
		require.Len(t, out, 1)

		v := out[0]
		assert.Equal(t, contracts.SeverityHigh, v.Severity)
		assert.Equal(t, "semantic:contradiction", v.RuleID)
		assert.Equal(t, strings.Index(strings.ToLower(text), "guaranteed"), v.Location.Start)
		assert.Equal(t, "guaranteed", text[v.Location.Start:v.Location.End])
	})

	t.Run("positive term alone is fine", func(t *testing.T) {
		out := scorer.checkContradictions("Returns are guaranteed.", "m")
		assert.Empty(t, out)
	})

	t.Run("severity comes from the pair", func(t *testing.T) {
		text := "This memo is confidential but also publicly available."
		out := scorer.checkContradictions(text, "m")
		require.Len(t, out, 1)
		assert.Equal(t, contracts.SeverityMedium, out[0].Severity)
	})
}
