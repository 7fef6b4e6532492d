// Package cache provides the results cache: formatted verification results
// keyed by content fingerprint, with a TTL so stale verdicts age out. Two
// implementations ship: an in-process LRU and a Redis-backed cache for
// deployments that share results across replicas.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Fingerprint derives the content-addressed cache key for a request:
// SHA-256 over the domain, the NFC-normalized extracted text, and the
// canonicalized options document. Unicode normalization keeps visually
// identical content on one key; JCS keeps the options encoding stable
// regardless of field ordering.
func Fingerprint(content contracts.ParsedContent, domain contracts.Domain, opts contracts.Options) (string, error) {
	raw, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize options: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(norm.NFC.String(content.ExtractedText)))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
