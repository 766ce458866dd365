// Package cache stores complete generation batches under a derived request key.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// GenerationCache wraps a CacheStore with TTL expiry and hit accounting.
// Expired entries are deleted when they are looked up. Concurrent writers to the
// same key race and the last write wins.
type GenerationCache struct {
	store  ports.CacheStore
	ttl    time.Duration
	clock  ports.Clock
	logger ports.Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Option customises a GenerationCache.
type Option func(*GenerationCache)

// WithClock overrides the wall clock.
func WithClock(clock ports.Clock) Option {
	return func(c *GenerationCache) { c.clock = clock }
}

// WithTTL overrides the default 24h expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *GenerationCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger attaches a logger for store failures.
func WithLogger(logger ports.Logger) Option {
	return func(c *GenerationCache) { c.logger = logger }
}

// NewGenerationCache builds a cache over store.
func NewGenerationCache(store ports.CacheStore, opts ...Option) *GenerationCache {
	c := &GenerationCache{
		store: store,
		ttl:   domain.DefaultCacheTTL,
		clock: ports.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured expiry.
func (c *GenerationCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the live entry for the request, if any. The returned data is a copy.
func (c *GenerationCache) Get(template, model string, batchSize int, referenceContent string) (domain.CacheEntry, bool) {
	key := DeriveKey(template, model, batchSize, referenceContent)
	entry, ok, err := c.store.Load(key)
	if err != nil {
		c.warn("cache load failed", err, key)
		c.misses.Add(1)
		return domain.CacheEntry{}, false
	}
	if !ok {
		c.misses.Add(1)
		return domain.CacheEntry{}, false
	}
	if c.expired(entry) {
		c.evict(key)
		c.misses.Add(1)
		return domain.CacheEntry{}, false
	}
	c.hits.Add(1)
	entry.Data = domain.CloneItems(entry.Data)
	return entry, true
}

// Put replaces the entry for the request with items stamped at the current time.
func (c *GenerationCache) Put(template, model string, batchSize int, referenceContent string, items []domain.GeneratedItem) (domain.CacheEntry, error) {
	entry := domain.CacheEntry{
		Key:      DeriveKey(template, model, batchSize, referenceContent),
		Data:     domain.CloneItems(items),
		CachedAt: c.clock.Now(),
	}
	if err := c.store.Save(entry); err != nil {
		return domain.CacheEntry{}, err
	}
	return entry, nil
}

// Entries lists live entries.
func (c *GenerationCache) Entries() ([]domain.CacheEntry, error) {
	all, err := c.store.List()
	if err != nil {
		return nil, err
	}
	live := make([]domain.CacheEntry, 0, len(all))
	for _, entry := range all {
		if !c.expired(entry) {
			live = append(live, entry)
		}
	}
	return live, nil
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *GenerationCache) Sweep() (int, error) {
	all, err := c.store.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range all {
		if c.expired(entry) {
			if c.evict(entry.Key) {
				removed++
			}
		}
	}
	return removed, nil
}

// Clear drops every entry.
func (c *GenerationCache) Clear() error {
	return c.store.Clear()
}

// Stats reports entry count and counters since construction.
func (c *GenerationCache) Stats() (domain.CacheStats, error) {
	entries, err := c.Entries()
	if err != nil {
		return domain.CacheStats{}, err
	}
	evictions := c.evictions.Load()
	if counter, ok := c.store.(capacityEvictions); ok {
		evictions += counter.CapacityEvictions()
	}
	return domain.CacheStats{
		Entries:   len(entries),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: evictions,
	}, nil
}

// capacityEvictions is implemented by stores that drop entries when full.
type capacityEvictions interface {
	CapacityEvictions() uint64
}

// Location names the directory behind a file-backed store, or "in-memory".
func (c *GenerationCache) Location() string {
	if d, ok := c.store.(interface{ Dir() string }); ok {
		return d.Dir()
	}
	return "in-memory"
}

func (c *GenerationCache) expired(entry domain.CacheEntry) bool {
	return c.clock.Now().Sub(entry.CachedAt) > c.ttl
}

func (c *GenerationCache) evict(key string) bool {
	if err := c.store.Delete(key); err != nil {
		c.warn("cache delete failed", err, key)
		return false
	}
	c.evictions.Add(1)
	return true
}

func (c *GenerationCache) warn(msg string, err error, key string) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg, err, map[string]interface{}{"key": key})
}

var _ ports.GenerationCache = (*GenerationCache)(nil)
