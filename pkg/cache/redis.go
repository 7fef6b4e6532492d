package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verityhq/verdict/pkg/contracts"
)

const redisKeyPrefix = "verdict:results:"

// Redis is a results cache backed by a Redis instance, for deployments
// where multiple replicas should share cached verdicts. Entries rely on
// Redis key expiry for their TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedis creates a Redis-backed cache. A non-positive ttl falls back to
// the package default.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb, ttl: ttl}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (*contracts.VerificationResult, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		cacheMissesTotal.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result contracts.VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	r.hits.Add(1)
	cacheHitsTotal.Inc()
	return &result, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, result *contracts.VerificationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear implements Cache. Only keys under the cache prefix are removed.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Stats implements Cache. Entry counting scans the prefix, so it is
// intended for operator inspection, not hot paths.
func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	entries := 0
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("redis scan: %w", err)
	}
	return Stats{
		Entries: entries,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}, nil
}
