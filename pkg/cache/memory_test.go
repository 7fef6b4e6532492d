package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verityhq/verdict/pkg/contracts"
)

func sampleResult(id string) *contracts.VerificationResult {
	return &contracts.VerificationResult{
		VerificationID:    id,
		OverallConfidence: 92,
		RiskLevel:         contracts.RiskLow,
		Timestamp:         time.Now().UTC(),
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(8, time.Minute)

	t.Run("miss then hit", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.Set(ctx, "k1", sampleResult("v1")))

		got, ok, err := cache.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v1", got.VerificationID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k2", sampleResult("v2")))
		require.NoError(t, cache.Delete(ctx, "k2"))
		_, ok, err := cache.Get(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k3", sampleResult("v3")))
		require.NoError(t, cache.Clear(ctx))
		stats, err := cache.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Entries)
	})

	t.Run("stats track hits and misses", func(t *testing.T) {
		fresh := NewMemory(8, time.Minute)
		require.NoError(t, fresh.Set(ctx, "k", sampleResult("v")))

		_, _, _ = fresh.Get(ctx, "k")
		_, _, _ = fresh.Get(ctx, "k")
		_, _, _ = fresh.Get(ctx, "absent")

		stats, err := fresh.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Entries)
		assert.Equal(t, uint64(2), stats.Hits)
		assert.Equal(t, uint64(1), stats.Misses)
	})
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(8, 30*time.Millisecond)

	require.NoError(t, cache.Set(ctx, "k", sampleResult("v")))
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, err := cache.Get(ctx, "k")
		return err == nil && !ok
	}, time.Second, 10*time.Millisecond, "entry should expire")
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(2, time.Minute)

	require.NoError(t, cache.Set(ctx, "a", sampleResult("a")))
	require.NoError(t, cache.Set(ctx, "b", sampleResult("b")))
	require.NoError(t, cache.Set(ctx, "c", sampleResult("c")))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries, "size bound evicts the oldest entry")

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDefaults(t *testing.T) {
	cache := NewMemory(0, 0)
	require.NoError(t, cache.Set(context.Background(), "k", sampleResult("v")))
	_, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
