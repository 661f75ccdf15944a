// Package cache provides the Redis cache-aside layer for task rows and owner
// counters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
	"github.com/example/taskflow/modules/task"
)

const (
	taskKeyPrefix  = "task:"
	statsKeyPrefix = "stats:"
)

// Cache stores JSON values in Redis under a common prefix.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  *Stats
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// Compile-time check that Cache can back the task service.
var _ task.Cache = (*Cache)(nil)

// New creates a new cache instance.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		stats:  &Stats{},
	}
}

// get decodes the value stored at key into dest and reports whether it was
// found.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			return false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}

	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

func (c *Cache) delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}

	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	atomic.AddUint64(&c.stats.Deletes, uint64(n))
	return nil
}

// GetTask returns the cached row of a task.
func (c *Cache) GetTask(ctx context.Context, id string) (*domain.Task, bool, error) {
	var t domain.Task
	found, err := c.get(ctx, taskKeyPrefix+id, &t)
	if !found || err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// SetTask caches the row of a task.
func (c *Cache) SetTask(ctx context.Context, t *domain.Task) error {
	return c.set(ctx, taskKeyPrefix+t.ID, t)
}

// DeleteTasks drops the cached rows of the given tasks.
func (c *Cache) DeleteTasks(ctx context.Context, ids ...string) error {
	return c.delete(ctx, prefixed(taskKeyPrefix, ids)...)
}

// GetStats returns the cached counters of a principal.
func (c *Cache) GetStats(ctx context.Context, principalID string) (*profile.PrincipalStats, bool, error) {
	var s profile.PrincipalStats
	found, err := c.get(ctx, statsKeyPrefix+principalID, &s)
	if !found || err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// SetStats caches the counters of a principal.
func (c *Cache) SetStats(ctx context.Context, stats *profile.PrincipalStats) error {
	return c.set(ctx, statsKeyPrefix+stats.PrincipalID, stats)
}

// DeleteStats drops the cached counters of the given principals.
func (c *Cache) DeleteStats(ctx context.Context, principalIDs ...string) error {
	return c.delete(ctx, prefixed(statsKeyPrefix, principalIDs)...)
}

func prefixed(prefix string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, prefix+id)
		}
	}
	return out
}

// GetStatsSnapshot returns the current cache statistics.
func (c *Cache) GetStatsSnapshot() StatsSnapshot {
	hits := atomic.LoadUint64(&c.stats.Hits)
	misses := atomic.LoadUint64(&c.stats.Misses)
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&c.stats.Sets),
		Deletes:   atomic.LoadUint64(&c.stats.Deletes),
		Errors:    atomic.LoadUint64(&c.stats.Errors),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}

// Ping checks if the Redis connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
