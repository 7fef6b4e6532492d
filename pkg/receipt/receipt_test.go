package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func testResult() *contracts.VerificationResult {
	return &contracts.VerificationResult{
		VerificationID:    "v-42",
		OverallConfidence: 96,
		RiskLevel:         contracts.RiskLow,
		Issues: []contracts.Issue{
			{
				ID:           "issue-1",
				Type:         contracts.IssueFactualError,
				Severity:     contracts.SeverityLow,
				Description:  "weak citation",
				Confidence:   55,
				ModuleSource: "compliance-financial",
			},
		},
		ProcessingTime:  120 * time.Millisecond,
		Recommendations: []string{"compliance-financial module detected 1 issue(s)"},
		Timestamp:       time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	ks, err := NewInMemoryKeySet()
	require.NoError(t, err)
	return NewIssuer(ks, "verdict", "verdict-clients", time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)
	result := testResult()

	token, err := issuer.Issue(result, contracts.DomainFinancial, "sha256:feedface")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "v-42", claims.VerificationID)
	assert.Equal(t, contracts.DomainFinancial, claims.Domain)
	assert.Equal(t, "sha256:feedface", claims.Fingerprint)
	assert.Equal(t, contracts.RiskLow, claims.RiskLevel)
	assert.Equal(t, 96, claims.OverallConfidence)
	assert.Equal(t, 1, claims.IssueCount)
	assert.Equal(t, "v-42", claims.Subject)
	assert.NoError(t, claims.Matches(result))
}

func TestMatchesDetectsTampering(t *testing.T) {
	issuer := newTestIssuer(t)
	result := testResult()

	token, err := issuer.Issue(result, contracts.DomainFinancial, "sha256:feedface")
	require.NoError(t, err)
	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	tampered := *result
	tampered.OverallConfidence = 100
	assert.ErrorIs(t, claims.Matches(&tampered), ErrResultMismatch)
}

func TestVerifyRejectsExpired(t *testing.T) {
	ks, err := NewInMemoryKeySet()
	require.NoError(t, err)
	issuer := &Issuer{keys: ks, issuer: "verdict", audience: "verdict-clients", ttl: -time.Minute}

	token, err := issuer.Issue(testResult(), contracts.DomainLegal, "")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrReceiptExpired)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	issuer := newTestIssuer(t)
	other := newTestIssuer(t)

	token, err := issuer.Issue(testResult(), contracts.DomainLegal, "")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrReceiptInvalid)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Issue(testResult(), contracts.DomainLegal, "")
	require.NoError(t, err)

	_, err = issuer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrReceiptInvalid)
}

func TestRotationKeepsOldReceiptsVerifiable(t *testing.T) {
	ks, err := NewInMemoryKeySet()
	require.NoError(t, err)
	issuer := NewIssuer(ks, "verdict", "verdict-clients", time.Hour)

	oldToken, err := issuer.Issue(testResult(), contracts.DomainLegal, "")
	require.NoError(t, err)

	require.NoError(t, ks.Rotate())

	newToken, err := issuer.Issue(testResult(), contracts.DomainLegal, "")
	require.NoError(t, err)

	_, err = issuer.Verify(oldToken)
	assert.NoError(t, err)
	_, err = issuer.Verify(newToken)
	assert.NoError(t, err)
}

func TestResultDigestIsStable(t *testing.T) {
	a, err := ResultDigest(testResult())
	require.NoError(t, err)
	b, err := ResultDigest(testResult())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := testResult()
	changed.RiskLevel = contracts.RiskHigh
	c, err := ResultDigest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
