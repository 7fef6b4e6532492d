package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/verityhq/verdict/pkg/contracts"
)

var (
	ErrReceiptExpired = errors.New("receipt expired")
	ErrReceiptInvalid = errors.New("receipt invalid")

	// ErrResultMismatch reports a result document that does not match the
	// digest sealed into the receipt.
	ErrResultMismatch = errors.New("result does not match receipt digest")
)

// DefaultTTL is how long receipts verify when the issuer sets no TTL.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the receipt payload: the verdict summary plus two bindings,
// the request fingerprint that produced the result and a digest of the
// exact result document.
type Claims struct {
	VerificationID    string              `json:"verification_id"`
	Domain            contracts.Domain    `json:"domain"`
	Fingerprint       string              `json:"fingerprint,omitempty"`
	RiskLevel         contracts.RiskLevel `json:"risk_level"`
	OverallConfidence int                 `json:"overall_confidence"`
	IssueCount        int                 `json:"issue_count"`
	ResultDigest      string              `json:"result_digest"`
	jwt.RegisteredClaims
}

// Matches reports whether result is the exact document this receipt was
// issued for.
func (c *Claims) Matches(result *contracts.VerificationResult) error {
	digest, err := ResultDigest(result)
	if err != nil {
		return err
	}
	if digest != c.ResultDigest {
		return ErrResultMismatch
	}
	return nil
}

// Issuer signs and verifies verification receipts.
type Issuer struct {
	keys     KeySet
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer creates a receipt issuer. A non-positive ttl falls back to
// DefaultTTL.
func NewIssuer(keys KeySet, issuer, audience string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{keys: keys, issuer: issuer, audience: audience, ttl: ttl}
}

// Issue signs a receipt for one verification result. fingerprint is the
// request fingerprint the result was computed for; empty is allowed when
// the caller has no request identity to bind.
func (i *Issuer) Issue(result *contracts.VerificationResult, domain contracts.Domain, fingerprint string) (string, error) {
	digest, err := ResultDigest(result)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		VerificationID:    result.VerificationID,
		Domain:            domain,
		Fingerprint:       fingerprint,
		RiskLevel:         result.RiskLevel,
		OverallConfidence: result.OverallConfidence,
		IssueCount:        len(result.Issues),
		ResultDigest:      digest,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   result.VerificationID,
			Issuer:    i.issuer,
			Audience:  []string{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return i.keys.Sign(claims)
}

// Verify checks a receipt's signature, expiry, issuer and audience, and
// returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, i.keys.KeyFunc(),
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrReceiptExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrReceiptInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrReceiptInvalid
	}
	return claims, nil
}

// ResultDigest computes the canonical digest of a result document: JCS
// canonicalization of its JSON encoding, then SHA-256.
func ResultDigest(result *contracts.VerificationResult) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize result: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
