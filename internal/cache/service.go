package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/qolzam/natours/internal/pkg/log"
	"github.com/qolzam/natours/internal/platform/config"
)

// GenericCacheService stores JSON values under a key prefix. A nil service or
// a disabled one answers every call with ErrCacheDisabled.
type GenericCacheService struct {
	cache  Cache
	config config.CacheConfig
	errors int64
}

// NewGenericCacheService creates a new generic cache service
func NewGenericCacheService(cache Cache, cfg config.CacheConfig) *GenericCacheService {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &GenericCacheService{cache: cache, config: cfg}
}

// IsEnabled reports whether reads and writes reach a backend.
func (gcs *GenericCacheService) IsEnabled() bool {
	return gcs != nil && gcs.config.Enabled && gcs.cache != nil
}

// GetCached retrieves and unmarshals cached data into target
func (gcs *GenericCacheService) GetCached(ctx context.Context, key string, target interface{}) error {
	if !gcs.IsEnabled() {
		return ErrCacheDisabled
	}

	fullKey := gcs.buildKey(key)
	data, err := gcs.cache.Get(ctx, fullKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			atomic.AddInt64(&gcs.errors, 1)
			log.ErrorWithContext(ctx, "Cache get error for key %s: %v", fullKey, err)
		}
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		atomic.AddInt64(&gcs.errors, 1)
		log.ErrorWithContext(ctx, "Cache data unmarshal error for key %s: %v", fullKey, err)
		return fmt.Errorf("cache deserialization failed: %w", err)
	}
	return nil
}

// CacheData marshals and stores data with the configured TTL unless one is given
func (gcs *GenericCacheService) CacheData(ctx context.Context, key string, data interface{}, ttl ...time.Duration) error {
	if !gcs.IsEnabled() {
		return ErrCacheDisabled
	}

	cacheTTL := gcs.config.TTL
	if len(ttl) > 0 && ttl[0] > 0 {
		cacheTTL = ttl[0]
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		atomic.AddInt64(&gcs.errors, 1)
		return fmt.Errorf("cache serialization failed: %w", err)
	}

	fullKey := gcs.buildKey(key)
	if err := gcs.cache.Set(ctx, fullKey, jsonData, cacheTTL); err != nil {
		atomic.AddInt64(&gcs.errors, 1)
		log.ErrorWithContext(ctx, "Cache set error for key %s: %v", fullKey, err)
		return err
	}
	return nil
}

// InvalidateKey removes a specific key from cache
func (gcs *GenericCacheService) InvalidateKey(ctx context.Context, key string) error {
	if !gcs.IsEnabled() {
		return ErrCacheDisabled
	}
	fullKey := gcs.buildKey(key)
	if err := gcs.cache.Delete(ctx, fullKey); err != nil {
		atomic.AddInt64(&gcs.errors, 1)
		log.ErrorWithContext(ctx, "Cache key invalidation error for key %s: %v", fullKey, err)
		return err
	}
	return nil
}

// InvalidatePattern removes all cache keys matching the given pattern
func (gcs *GenericCacheService) InvalidatePattern(ctx context.Context, pattern string) error {
	if !gcs.IsEnabled() {
		return ErrCacheDisabled
	}
	fullPattern := gcs.buildKey(pattern)
	if err := gcs.cache.DeletePattern(ctx, fullPattern); err != nil {
		atomic.AddInt64(&gcs.errors, 1)
		log.ErrorWithContext(ctx, "Cache pattern invalidation error for pattern %s: %v", fullPattern, err)
		return err
	}
	return nil
}

// GenerateHashKey builds a deterministic key from prefix and params.
func (gcs *GenericCacheService) GenerateHashKey(prefix string, params map[string]interface{}) string {
	h := sha256.New()
	h.Write([]byte(prefix + ":"))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var valueStr string
		switch val := params[k].(type) {
		case string:
			valueStr = val
		case nil:
			valueStr = "nil"
		default:
			if jsonVal, err := json.Marshal(val); err == nil {
				valueStr = string(jsonVal)
			} else {
				valueStr = fmt.Sprintf("%v", val)
			}
		}
		fmt.Fprintf(h, "%s=%s;", k, valueStr)
	}

	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(h.Sum(nil))[:16])
}

// Stats merges backend statistics with the service error count.
func (gcs *GenericCacheService) Stats() (Stats, int64) {
	if !gcs.IsEnabled() {
		return Stats{}, 0
	}
	return gcs.cache.Stats(), atomic.LoadInt64(&gcs.errors)
}

func (gcs *GenericCacheService) Close() error {
	if gcs == nil || gcs.cache == nil {
		return nil
	}
	return gcs.cache.Close()
}

func (gcs *GenericCacheService) buildKey(key string) string {
	if gcs.config.Prefix == "" {
		return key
	}
	prefix := gcs.config.Prefix
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return prefix + key
}
