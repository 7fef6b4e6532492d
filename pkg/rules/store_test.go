package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestMemoryStoreGetApplicableRules(t *testing.T) {
	store := NewMemoryStore()
	store.PutAll([]contracts.ComplianceRule{
		{ID: "fin-002", Domain: contracts.DomainFinancial, Jurisdiction: "us", Severity: contracts.SeverityHigh, IsActive: true},
		{ID: "fin-001", Domain: contracts.DomainFinancial, Jurisdiction: "us", Severity: contracts.SeverityCritical, IsActive: true},
		{ID: "fin-inactive", Domain: contracts.DomainFinancial, Jurisdiction: "us", Severity: contracts.SeverityLow, IsActive: false},
		{ID: "health-001", Domain: contracts.DomainHealthcare, Jurisdiction: "us", Severity: contracts.SeverityCritical, IsActive: true},
		{ID: "fin-global", Domain: contracts.DomainFinancial, Jurisdiction: "*", Severity: contracts.SeverityMedium, IsActive: true},
	})
	require.Equal(t, 5, store.Len())

	ctx := context.Background()

	t.Run("filters by domain and jurisdiction", func(t *testing.T) {
		got, err := store.GetApplicableRules(ctx, contracts.DomainFinancial, "us")
		require.NoError(t, err)

		ids := make([]string, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		assert.Equal(t, []string{"fin-001", "fin-002", "fin-global"}, ids)
	})

	t.Run("inactive rules never match", func(t *testing.T) {
		got, err := store.GetApplicableRules(ctx, contracts.DomainFinancial, "us")
		require.NoError(t, err)
		for _, r := range got {
			assert.True(t, r.IsActive, "rule %s", r.ID)
		}
	})

	t.Run("wildcard jurisdiction matches any request", func(t *testing.T) {
		got, err := store.GetApplicableRules(ctx, contracts.DomainFinancial, "eu")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "fin-global", got[0].ID)
	})

	t.Run("empty requested jurisdiction matches everything", func(t *testing.T) {
		got, err := store.GetApplicableRules(ctx, contracts.DomainFinancial, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.GetApplicableRules(cancelled, contracts.DomainFinancial, "us")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStorePutDelete(t *testing.T) {
	store := NewMemoryStore()
	rule := contracts.ComplianceRule{ID: "r1", Domain: contracts.DomainLegal, IsActive: true}

	store.Put(rule)
	assert.Equal(t, 1, store.Len())

	// Put with the same ID replaces.
	rule.Severity = contracts.SeverityHigh
	store.Put(rule)
	assert.Equal(t, 1, store.Len())

	got, err := store.GetApplicableRules(context.Background(), contracts.DomainLegal, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, contracts.SeverityHigh, got[0].Severity)

	store.Delete("r1")
	assert.Equal(t, 0, store.Len())
	store.Delete("r1") // no-op
}
