package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestFingerprint(t *testing.T) {
	content := contracts.ParsedContent{ID: "c1", ExtractedText: "Quarterly filing draft."}
	opts := contracts.Options{MaxProcessingTime: 5 * time.Second}

	base, err := Fingerprint(content, contracts.DomainFinancial, opts)
	require.NoError(t, err)
	require.Len(t, base, 64, "hex-encoded SHA-256")

	t.Run("deterministic", func(t *testing.T) {
		again, err := Fingerprint(content, contracts.DomainFinancial, opts)
		require.NoError(t, err)
		assert.Equal(t, base, again)
	})

	t.Run("content identity is irrelevant", func(t *testing.T) {
		renamed := content
		renamed.ID = "c2"
		got, err := Fingerprint(renamed, contracts.DomainFinancial, opts)
		require.NoError(t, err)
		assert.Equal(t, base, got, "key is content-addressed, not ID-addressed")
	})

	t.Run("text changes the key", func(t *testing.T) {
		changed := content
		changed.ExtractedText += "!"
		got, err := Fingerprint(changed, contracts.DomainFinancial, opts)
		require.NoError(t, err)
		assert.NotEqual(t, base, got)
	})

	t.Run("domain changes the key", func(t *testing.T) {
		got, err := Fingerprint(content, contracts.DomainLegal, opts)
		require.NoError(t, err)
		assert.NotEqual(t, base, got)
	})

	t.Run("options change the key", func(t *testing.T) {
		threshold := 80
		got, err := Fingerprint(content, contracts.DomainFinancial,
			contracts.Options{ConfidenceThreshold: &threshold, MaxProcessingTime: 5 * time.Second})
		require.NoError(t, err)
		assert.NotEqual(t, base, got)
	})

	t.Run("unicode normalization folds equivalent forms", func(t *testing.T) {
		composed := contracts.ParsedContent{ExtractedText: "café records"}
		decomposed := contracts.ParsedContent{ExtractedText: "café records"}

		a, err := Fingerprint(composed, contracts.DomainLegal, contracts.Options{})
		require.NoError(t, err)
		b, err := Fingerprint(decomposed, contracts.DomainLegal, contracts.Options{})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
