package cache

import (
	"context"
	"time"

	"github.com/verityhq/verdict/pkg/contracts"
)

// DefaultTTL is how long a cached result stays valid unless configured
// otherwise.
const DefaultTTL = 3600 * time.Second

// DefaultMaxEntries bounds the in-process cache size.
const DefaultMaxEntries = 10000

// Stats summarizes cache effectiveness.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache stores formatted verification results keyed by content
// fingerprint. Values are write-once per key: the key is content-addressed,
// so concurrent writers always store equivalent results and entries are
// never mutated in place.
type Cache interface {
	Get(ctx context.Context, key string) (*contracts.VerificationResult, bool, error)
	Set(ctx context.Context, key string, result *contracts.VerificationResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}
