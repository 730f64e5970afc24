package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/redis"
)

// FundamentalsCache is a bounded TTL cache of per-symbol fundamentals.
// Fundamentals move slowly, so one lookup per symbol per TTL is enough.
// An optional Redis tier lets several instances share lookups.
// ⭐ SSOT: 펀더멘털 캐싱은 이 구조체에서만
type FundamentalsCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	clock   func() time.Time
	shared  *redis.Cache
	logger  *logger.Logger
}

type entry struct {
	value    contracts.Fundamentals
	storedAt time.Time
}

// sharedEntry keeps the original store time so a promoted copy expires with
// the Redis entry instead of living another full TTL
type sharedEntry struct {
	Fundamentals contracts.Fundamentals `json:"fundamentals"`
	StoredAt     time.Time              `json:"stored_at"`
}

// Stats reports cache occupancy
type Stats struct {
	TotalCount int           `json:"total_count"`
	StaleCount int           `json:"stale_count"`
	MaxSize    int           `json:"max_size"`
	TTL        time.Duration `json:"ttl"`
}

// NewFundamentalsCache creates a cache holding at most maxSize symbols
func NewFundamentalsCache(ttl time.Duration, maxSize int, log *logger.Logger) *FundamentalsCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &FundamentalsCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		clock:   time.Now,
		logger:  log.WithComponent("fundamentals_cache"),
	}
}

// WithShared adds a Redis tier consulted on local misses
func (c *FundamentalsCache) WithShared(shared *redis.Cache) *FundamentalsCache {
	c.shared = shared
	return c
}

// Get returns fresh fundamentals for symbol
func (c *FundamentalsCache) Get(ctx context.Context, symbol string) (contracts.Fundamentals, bool) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if ok && c.clock().Sub(e.storedAt) <= c.ttl {
		return e.value, true
	}
	if c.shared == nil {
		return contracts.Fundamentals{}, false
	}

	var shared sharedEntry
	found, err := c.shared.Get(ctx, redis.FundamentalsKey(symbol), &shared)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Shared fundamentals lookup failed")
		return contracts.Fundamentals{}, false
	}
	if !found || c.clock().Sub(shared.StoredAt) > c.ttl {
		return contracts.Fundamentals{}, false
	}

	c.storeLocal(symbol, shared.Fundamentals, shared.StoredAt)
	return shared.Fundamentals, true
}

// Set stores fundamentals for symbol, evicting the oldest entry when full
func (c *FundamentalsCache) Set(ctx context.Context, symbol string, f contracts.Fundamentals) {
	now := c.clock()
	c.storeLocal(symbol, f, now)

	if c.shared != nil {
		shared := sharedEntry{Fundamentals: f, StoredAt: now}
		if err := c.shared.Set(ctx, redis.FundamentalsKey(symbol), shared, c.ttl); err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Shared fundamentals store failed")
		}
	}
}

func (c *FundamentalsCache) storeLocal(symbol string, f contracts.Fundamentals, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[symbol]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[symbol] = entry{value: f, storedAt: storedAt}
}

func (c *FundamentalsCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Delete removes symbol from the local tier
func (c *FundamentalsCache) Delete(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, symbol)
}

// Len returns the number of locally cached symbols
func (c *FundamentalsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale removes entries older than the TTL
func (c *FundamentalsCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	count := 0
	for symbol, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, symbol)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale fundamentals from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *FundamentalsCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalCount: len(c.entries), MaxSize: c.maxSize, TTL: c.ttl}
	now := c.clock()
	for _, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			stats.StaleCount++
		}
	}
	return stats
}
