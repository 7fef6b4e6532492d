package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verityhq/verdict/pkg/contracts"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_results_cache_hits_total",
		Help: "Total results cache hits.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_results_cache_misses_total",
		Help: "Total results cache misses.",
	})
)

// Memory is an in-process results cache: an LRU bounded by entry count
// whose entries expire after a fixed TTL.
type Memory struct {
	lru    *expirable.LRU[string, *contracts.VerificationResult]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemory creates an in-process cache. Non-positive maxEntries or ttl
// fall back to the package defaults.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		lru: expirable.NewLRU[string, *contracts.VerificationResult](maxEntries, nil, ttl),
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (*contracts.VerificationResult, bool, error) {
	if result, ok := m.lru.Get(key); ok {
		m.hits.Add(1)
		cacheHitsTotal.Inc()
		return result, true, nil
	}
	m.misses.Add(1)
	cacheMissesTotal.Inc()
	return nil, false, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, result *contracts.VerificationResult) error {
	m.lru.Add(key, result)
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Clear implements Cache.
func (m *Memory) Clear(_ context.Context) error {
	m.lru.Purge()
	return nil
}

// Stats implements Cache.
func (m *Memory) Stats(_ context.Context) (Stats, error) {
	return Stats{
		Entries: m.lru.Len(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}, nil
}
