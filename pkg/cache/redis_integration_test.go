//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/verityhq/verdict/pkg/cache"
	"github.com/verityhq/verdict/pkg/contracts"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	return opts.Addr
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	c := cache.NewRedis(startRedis(t), "", 0, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	result := &contracts.VerificationResult{
		VerificationID:    "ver-1",
		OverallConfidence: 88,
		RiskLevel:         contracts.RiskMedium,
		Issues: []contracts.Issue{{
			ID:       "iss-1",
			Type:     contracts.IssueComplianceViolation,
			Severity: contracts.SeverityMedium,
			Location: contracts.Location{Start: 3, End: 9},
		}},
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}

	t.Run("set get roundtrip", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "fp-1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, "fp-1", result))

		got, ok, err := c.Get(ctx, "fp-1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, result.VerificationID, got.VerificationID)
		assert.Equal(t, result.OverallConfidence, got.OverallConfidence)
		assert.Equal(t, result.RiskLevel, got.RiskLevel)
		require.Len(t, got.Issues, 1)
		assert.Equal(t, result.Issues[0].Location, got.Issues[0].Location)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "fp-2", result))
		require.NoError(t, c.Delete(ctx, "fp-2"))
		_, ok, err := c.Get(ctx, "fp-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clear and stats", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "fp-3", result))
		require.NoError(t, c.Set(ctx, "fp-4", result))

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.Entries, 2)

		require.NoError(t, c.Clear(ctx))
		stats, err = c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Entries)
	})
}

func TestRedisCacheTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	c := cache.NewRedis(startRedis(t), "", 0, time.Second)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(ctx, "fp-ttl", &contracts.VerificationResult{VerificationID: "v"}))

	assert.Eventually(t, func() bool {
		_, ok, err := c.Get(ctx, "fp-ttl")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond, "redis key should expire")
}
