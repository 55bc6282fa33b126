package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InfraMetrics tracks infrastructure-level signals: the availability cache's
// hit rate, evictions and size.
type InfraMetrics struct {
	Cache *CacheMetrics
}

// NewInfraMetrics registers the infrastructure metrics under namespace with
// the "infra" subsystem.
func NewInfraMetrics(namespace string) *InfraMetrics {
	return &InfraMetrics{
		Cache: NewCacheMetrics(namespace),
	}
}

// CacheMetrics tracks the Availability Cache's hit/miss rate, evictions, and
// current size, grounded in the same promauto idiom as HTTPMetrics.
//
// Metrics:
//   - reservo_infra_cache_hits_total
//   - reservo_infra_cache_misses_total
//   - reservo_infra_cache_evictions_total
//   - reservo_infra_cache_size: Current number of cached entries
type CacheMetrics struct {
	HitsTotal      prometheus.Counter
	MissesTotal    prometheus.Counter
	EvictionsTotal prometheus.Counter
	Size           prometheus.Gauge
}

// NewCacheMetrics registers cache metrics under namespace with the "infra"
// subsystem and a "cache" prefix on each metric name.
func NewCacheMetrics(namespace string) *CacheMetrics {
	return &CacheMetrics{
		HitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "cache_hits_total",
			Help:      "Total number of availability cache hits",
		}),
		MissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "cache_misses_total",
			Help:      "Total number of availability cache misses, including expired hits",
		}),
		EvictionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "cache_evictions_total",
			Help:      "Total number of entries removed from the availability cache (LRU pressure, expiry, invalidation)",
		}),
		Size: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "infra",
			Name:      "cache_size",
			Help:      "Current number of entries held in the availability cache",
		}),
	}
}

// RecordHit increments the cache hit counter.
func (m *CacheMetrics) RecordHit() {
	if m == nil {
		return
	}
	m.HitsTotal.Inc()
}

// RecordMiss increments the cache miss counter.
func (m *CacheMetrics) RecordMiss() {
	if m == nil {
		return
	}
	m.MissesTotal.Inc()
}

// RecordEviction increments the cache eviction counter.
func (m *CacheMetrics) RecordEviction() {
	if m == nil {
		return
	}
	m.EvictionsTotal.Inc()
}

// SetSize reports the cache's current entry count.
func (m *CacheMetrics) SetSize(n int) {
	if m == nil {
		return
	}
	m.Size.Set(float64(n))
}
