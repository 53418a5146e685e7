// Package cache provides the byte cache used to memoise single document reads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qolzam/natours/internal/platform/config"
)

// Cache defines the byte level operations every backend implements.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob pattern such as "tour:*".
	DeletePattern(ctx context.Context, pattern string) error
	Close() error
	Stats() Stats
}

// Stats provides cache performance statistics
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Keys      int64 `json:"keys"`
	Evictions int64 `json:"evictions"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrKeyNotFound is returned when a key is not found in cache
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheUnavailable is returned when the backend cannot be reached
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrCacheDisabled is returned by the service when caching is off
	ErrCacheDisabled = errors.New("cache disabled")
)

// New builds the backend named by cfg.Backend.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCache(cfg.MaxMemory, cfg.CleanupInterval), nil
	case BackendRedis:
		return NewRedisCache(cfg.Redis)
	}
	return nil, fmt.Errorf("invalid cache backend: %s", cfg.Backend)
}
