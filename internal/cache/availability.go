// Package cache holds the Availability Cache: a bounded LRU with per-entry
// TTL over materialized Resource availability views, adapted from the
// teacher's two-tier template cache down to a single in-memory tier.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/pkg/metrics"
)

// ResourceLoader materializes the authoritative AvailabilityView for a
// resource on a cache miss. The commit/cancel path never goes through this
// interface — only the read-side HTTP handlers and admin invalidation do.
type ResourceLoader interface {
	FindByID(ctx context.Context, id domain.ResourceID) (domain.Resource, error)
}

type cacheEntry struct {
	view      domain.AvailabilityView
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache performance, returned by the
// read-only /api/v1/availability/cache/stats diagnostics surface.
type Stats struct {
	Size     int
	MaxSize  int
	TTL      time.Duration
	Hits     int64
	Misses   int64
	HitRatio float64
}

// AvailabilityCache maps resource id to a materialized AvailabilityView.
// It behaves as an LRU with per-entry TTL: a hit past its expiry is treated
// as a miss and the entry is evicted before rematerializing. The lru.Cache
// does its own locking for entry mutations; mu guards only the hit/miss
// counters. The library's LRU bookkeeping (recency touch, eviction) runs in
// amortized O(1) per the spec's §4.4 requirement.
type AvailabilityCache struct {
	entries *lru.Cache[string, *cacheEntry]
	loader  ResourceLoader
	ttl     time.Duration
	maxSize int
	logger  *slog.Logger
	metrics *metrics.CacheMetrics

	mu     sync.RWMutex
	hits   int64
	misses int64
}

// New constructs an AvailabilityCache bounded at maxSize entries with the
// given per-entry TTL. Cache metrics are recorded against the default
// metrics registry; callers that don't care about Prometheus export can
// ignore it entirely since the hit/miss ratio is still available via Stats.
func New(maxSize int, ttl time.Duration, loader ResourceLoader, logger *slog.Logger) (*AvailabilityCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cacheMetrics := metrics.DefaultRegistry().Infra().Cache

	c := &AvailabilityCache{
		loader:  loader,
		ttl:     ttl,
		maxSize: maxSize,
		logger:  logger,
		metrics: cacheMetrics,
	}

	entries, err := lru.NewWithEvict[string, *cacheEntry](maxSize, func(_ string, _ *cacheEntry) {
		cacheMetrics.RecordEviction()
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// Get returns the AvailabilityView for id. On a fresh hit it reports
// IsCached=true and touches LRU recency; on an expired hit or a miss it
// rematerializes from the loader and repopulates the entry. Never consulted
// by the commit/cancel path (§5): a stale hit here cannot cause overbooking.
func (c *AvailabilityCache) Get(ctx context.Context, id domain.ResourceID) (domain.AvailabilityView, error) {
	key := id.String()

	if entry, ok := c.entries.Get(key); ok {
		if time.Now().Before(entry.expiresAt) {
			c.recordHit()
			view := entry.view
			view.IsCached = true
			return view, nil
		}
		c.entries.Remove(key)
	}
	c.recordMiss()

	resource, err := c.loader.FindByID(ctx, id)
	if err != nil {
		return domain.AvailabilityView{}, err
	}

	now := time.Now()
	view := domain.MaterializeAvailability(resource, now)
	c.entries.Add(key, &cacheEntry{view: view, expiresAt: now.Add(c.ttl)})
	return view, nil
}

// Invalidate unconditionally removes the entry for id. Never fails.
func (c *AvailabilityCache) Invalidate(id domain.ResourceID) {
	c.entries.Remove(id.String())
}

// InvalidateAll clears the map and resets the hit/miss counters.
func (c *AvailabilityCache) InvalidateAll() {
	c.entries.Purge()
	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

// Stats returns a snapshot of cache size, configuration, and hit rate.
func (c *AvailabilityCache) Stats() Stats {
	c.mu.RLock()
	hits, misses := c.hits, c.misses
	c.mu.RUnlock()

	total := hits + misses
	var ratio float64
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	size := c.entries.Len()
	c.metrics.SetSize(size)
	return Stats{
		Size: size, MaxSize: c.maxSize, TTL: c.ttl,
		Hits: hits, Misses: misses, HitRatio: ratio,
	}
}

func (c *AvailabilityCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	c.metrics.RecordHit()
}

func (c *AvailabilityCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.metrics.RecordMiss()
}
