package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func TestConditionEvaluator(t *testing.T) {
	eval, err := NewConditionEvaluator()
	require.NoError(t, err)

	input := ConditionInput{
		Text:         "patient record with diagnosis details",
		Domain:       "healthcare",
		Jurisdiction: "us",
		Metadata:     map[string]any{"source": "intake-form"},
	}

	t.Run("empty condition always holds", func(t *testing.T) {
		ok, err := eval.Eval("", input)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("domain guard", func(t *testing.T) {
		ok, err := eval.Eval(`domain == "healthcare"`, input)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = eval.Eval(`domain == "financial"`, input)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("text and metadata access", func(t *testing.T) {
		ok, err := eval.Eval(`text.contains("diagnosis") && metadata.source == "intake-form"`, input)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nil metadata is an empty map", func(t *testing.T) {
		ok, err := eval.Eval(`!("source" in metadata)`, ConditionInput{Domain: "legal"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("compile error surfaces", func(t *testing.T) {
		_, err := eval.Eval(`domain ==`, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compile condition")
	})

	t.Run("non-bool result is an error", func(t *testing.T) {
		_, err := eval.Eval(`domain`, input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want bool")
	})

	t.Run("programs are cached", func(t *testing.T) {
		const expr = `jurisdiction == "us"`
		_, err := eval.Eval(expr, input)
		require.NoError(t, err)

		eval.mu.RLock()
		_, cached := eval.programs[expr]
		eval.mu.RUnlock()
		assert.True(t, cached)

		ok, err := eval.Eval(expr, input)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestConditionEvaluatorPrecompile(t *testing.T) {
	eval, err := NewConditionEvaluator()
	require.NoError(t, err)

	t.Run("valid batch", func(t *testing.T) {
		err := eval.Precompile([]contracts.ComplianceRule{
			{ID: "r1", Condition: `domain == "legal"`},
			{ID: "r2"}, // no condition
		})
		assert.NoError(t, err)
	})

	t.Run("malformed condition names the rule", func(t *testing.T) {
		err := eval.Precompile([]contracts.ComplianceRule{
			{ID: "r3", Condition: `text.contains(`},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "r3")
	})
}
