package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Config holds cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	TTL           time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Prefix:    "taskflow:",
		TTL:       5 * time.Minute,
	}
}

// Module owns the Redis connection behind the task cache.
type Module struct {
	config Config
	client *redis.Client
	cache  *Cache
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the cache module. The client connects lazily, so the
// cache can be handed to other modules before the application starts.
func NewModule(config Config) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Module{
		config: config,
		client: client,
		cache:  New(client, config.Prefix, config.TTL),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Cache returns the cache instance.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Start verifies the Redis connection.
func (m *Module) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.cache.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.config.RedisAddr, m.config.Prefix, m.config.TTL)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.cache.Close(); err != nil {
		log.Printf("[cache] Error closing Redis connection: %v", err)
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports the Redis connection state together with the hit counters.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.cache.Ping(pingCtx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	snapshot := m.cache.GetStatsSnapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr":     m.config.RedisAddr,
			"hits":     snapshot.Hits,
			"misses":   snapshot.Misses,
			"hit_rate": snapshot.HitRate,
			"errors":   snapshot.Errors,
		},
	}
}
