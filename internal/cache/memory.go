package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCache is a process local cache bounded by total value size.
type MemoryCache struct {
	mu        sync.RWMutex
	items     map[string]memoryItem
	size      int64
	maxMemory int64

	hits      int64
	misses    int64
	evictions int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache starts a cache with a background sweep every cleanupInterval.
func NewMemoryCache(maxMemory int64, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:     make(map[string]memoryItem),
		maxMemory: maxMemory,
		stop:      make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.sweep(cleanupInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || item.expired(time.Now()) {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}
	atomic.AddInt64(&c.hits, 1)
	return append([]byte(nil), item.value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.items[key]; ok {
		c.size -= int64(len(old.value))
	}
	c.items[key] = item
	c.size += int64(len(item.value))
	c.evictLocked(key)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	return nil
}

func (c *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			c.removeLocked(key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	keys := int64(len(c.items))
	c.mu.RUnlock()
	return Stats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Keys:      keys,
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

func (c *MemoryCache) removeLocked(key string) {
	if item, ok := c.items[key]; ok {
		c.size -= int64(len(item.value))
		delete(c.items, key)
	}
}

// evictLocked drops expired entries, then entries closest to expiry, until the
// size fits. The entry just written is kept.
func (c *MemoryCache) evictLocked(keep string) {
	if c.maxMemory <= 0 || c.size <= c.maxMemory {
		return
	}
	now := time.Now()
	for key, item := range c.items {
		if item.expired(now) {
			c.removeLocked(key)
			atomic.AddInt64(&c.evictions, 1)
		}
	}
	for c.size > c.maxMemory && len(c.items) > 1 {
		victim := ""
		var soonest time.Time
		for key, item := range c.items {
			if key == keep {
				continue
			}
			if victim == "" || (!item.expiresAt.IsZero() && (soonest.IsZero() || item.expiresAt.Before(soonest))) {
				victim, soonest = key, item.expiresAt
			}
		}
		if victim == "" {
			return
		}
		c.removeLocked(victim)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if item.expired(now) {
					c.removeLocked(key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
