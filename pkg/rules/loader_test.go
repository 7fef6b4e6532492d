package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

const validRuleDoc = `
rules:
  - id: hipaa-ssn-001
    rule_text: Protected health information must not include unmasked SSNs.
    regulation: HIPAA
    jurisdiction: us
    domain: healthcare
    severity: critical
    keywords: ["social security"]
    patterns: ['\d{3}-\d{2}-\d{4}']
  - id: finra-guarantee-001
    rule_text: Performance guarantees are prohibited in retail communications.
    regulation: FINRA 2210
    domain: financial
    severity: high
    keywords: ["guaranteed returns"]
    condition: 'domain == "financial"'
    is_active: false
`

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		rules, err := Parse([]byte(validRuleDoc))
		require.NoError(t, err)
		require.Len(t, rules, 2)

		ssn := rules[0]
		assert.Equal(t, "hipaa-ssn-001", ssn.ID)
		assert.Equal(t, contracts.DomainHealthcare, ssn.Domain)
		assert.Equal(t, contracts.SeverityCritical, ssn.Severity)
		assert.True(t, ssn.IsActive, "is_active defaults to true")

		finra := rules[1]
		assert.False(t, finra.IsActive)
		assert.Equal(t, "", finra.Jurisdiction)
		assert.Equal(t, `domain == "financial"`, finra.Condition)
	})

	t.Run("missing required field", func(t *testing.T) {
		doc := `
rules:
  - id: r1
    regulation: HIPAA
    domain: healthcare
    severity: critical
`
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("unknown severity", func(t *testing.T) {
		doc := `
rules:
  - id: r1
    rule_text: x
    regulation: HIPAA
    domain: healthcare
    severity: fatal
`
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("unknown top-level key", func(t *testing.T) {
		_, err := Parse([]byte("rules: []\nextra: true\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("invalid pattern rejects the file", func(t *testing.T) {
		doc := `
rules:
  - id: r1
    rule_text: x
    regulation: HIPAA
    domain: healthcare
    severity: low
    patterns: ['([unclosed']
`
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")
	})

	t.Run("invalid condition rejects the file", func(t *testing.T) {
		doc := `
rules:
  - id: r1
    rule_text: x
    regulation: HIPAA
    domain: healthcare
    severity: low
    condition: 'text.contains('
`
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "r1")
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := Parse([]byte("{{nope"))
		assert.Error(t, err)
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules_healthcare.yaml"), []byte(validRuleDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("ignored: true"), 0o600))

	rules, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, rules, 2, "only rules_*.yaml files are loaded")

	t.Run("broken file names its source", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rules_bad.yaml"), []byte("rules: [{id: x}]"), 0o600))
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rules_bad.yaml")
	})
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rule file")
}
