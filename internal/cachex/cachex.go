// Package cachex provides the stats cache (C3): a short-TTL, Redis-backed
// store of per-content rating summaries. The interface mirrors the
// teacher's in-memory Cacher contract so callers are agnostic to backend.
package cachex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Allliance/content-rating/internal/logging"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cachex: miss")

// Stats is the cached per-content summary (C3's StatsEntry).
type Stats struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// Cache is the stats-cache contract used by C6 (invalidate) and C7 (read).
type Cache interface {
	Get(ctx context.Context, contentID int64) (Stats, error)
	Set(ctx context.Context, contentID int64, stats Stats) error
	Invalidate(ctx context.Context, contentID int64) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisCache implements Cache over go-redis, with the TTL from §6
// (content_rating_stats_{content_id}, 3600s default).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at url and returns a RedisCache with the given TTL.
func New(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	client := redis.NewClient(opts)
	return &RedisCache{client: client, ttl: ttl}, nil
}

func key(contentID int64) string {
	return fmt.Sprintf("content_rating_stats_%d", contentID)
}

// Get returns the cached stats for contentID, or ErrMiss if absent/expired.
func (c *RedisCache) Get(ctx context.Context, contentID int64) (Stats, error) {
	raw, err := c.client.Get(ctx, key(contentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Stats{}, ErrMiss
	}
	if err != nil {
		return Stats{}, fmt.Errorf("cachex get: %w", err)
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return Stats{}, fmt.Errorf("cachex decode: %w", err)
	}
	return s, nil
}

// Set stores stats for contentID with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, contentID int64, stats Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("cachex encode: %w", err)
	}
	if err := c.client.Set(ctx, key(contentID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cachex set: %w", err)
	}
	return nil
}

// Invalidate removes the cache entry for contentID. Called only by C6
// (§9: the ingest path never invalidates directly — stale cache heals
// within TTL, and the worker is the single writer of aggregates).
func (c *RedisCache) Invalidate(ctx context.Context, contentID int64) error {
	if err := c.client.Del(ctx, key(contentID)).Err(); err != nil {
		logging.Warn().Err(err).Int64("content_id", contentID).Msg("cache invalidate failed")
		return fmt.Errorf("cachex invalidate: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
