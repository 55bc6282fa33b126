// Package metrics provides centralized Prometheus metrics management for the
// reservation engine.
//
// This package implements a unified taxonomy for Prometheus metrics:
//   - Business metrics: commits, rejections, cancels
//   - Technical metrics: HTTP, retry
//   - Infrastructure metrics: availability cache
//
// Business and infrastructure metrics follow the naming convention
// reservo_<category>_<metric_name>_<unit>; HTTP metrics are named
// reservo_http_* and retry metrics reservo_store_retry_*.
//
// Example:
//
//	registry := metrics.DefaultRegistry()
//	registry.Business().CommitsTotal.WithLabelValues("resource-42").Inc()
//	registry.Infra().Cache.RecordHit()
package metrics

import (
	"sync"
)

// MetricCategory represents the category of a metric.
type MetricCategory string

const (
	// CategoryBusiness represents business-level metrics (commits, rejections, cancels)
	CategoryBusiness MetricCategory = "business"

	// CategoryTechnical represents technical metrics (HTTP, retry)
	CategoryTechnical MetricCategory = "technical"

	// CategoryInfra represents infrastructure metrics (availability cache)
	CategoryInfra MetricCategory = "infra"
)

// MetricsRegistry is the central registry for all Prometheus metrics.
// Provides organized access to metrics by category (Business, Technical, Infra).
//
// Thread-safe: all Prometheus metrics are thread-safe by design.
// Singleton: use DefaultRegistry() to get the global instance.
type MetricsRegistry struct {
	namespace string

	business  *BusinessMetrics
	technical *TechnicalMetrics
	infra     *InfraMetrics

	businessOnce  sync.Once
	technicalOnce sync.Once
	infraOnce     sync.Once
}

var (
	defaultRegistry     *MetricsRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global singleton MetricsRegistry. Safe for
// concurrent use. Initialized once on first call.
func DefaultRegistry() *MetricsRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewMetricsRegistry("reservo")
	})
	return defaultRegistry
}

// NewMetricsRegistry creates a new MetricsRegistry with the specified
// namespace. For most use cases, use DefaultRegistry() instead.
func NewMetricsRegistry(namespace string) *MetricsRegistry {
	if namespace == "" {
		namespace = "reservo"
	}

	return &MetricsRegistry{
		namespace: namespace,
	}
}

// Business returns the Business metrics manager, lazy-initialized on first
// access.
//
// Example:
//
//	registry.Business().RecordCommit("resource-42")
//	registry.Business().RecordRejection("RESOURCE_FULL")
func (r *MetricsRegistry) Business() *BusinessMetrics {
	r.businessOnce.Do(func() {
		r.business = NewBusinessMetrics(r.namespace)
	})
	return r.business
}

// Technical returns the Technical metrics manager, lazy-initialized on first
// access.
//
// Example:
//
//	registry.Technical().HTTP.Middleware(next)
//	registry.Technical().Retry.RecordAttempt("commit", "success", "none", 0.012)
func (r *MetricsRegistry) Technical() *TechnicalMetrics {
	r.technicalOnce.Do(func() {
		r.technical = NewTechnicalMetrics(r.namespace)
	})
	return r.technical
}

// Infra returns the Infrastructure metrics manager, lazy-initialized on
// first access.
//
// Example:
//
//	registry.Infra().Cache.RecordHit()
func (r *MetricsRegistry) Infra() *InfraMetrics {
	r.infraOnce.Do(func() {
		r.infra = NewInfraMetrics(r.namespace)
	})
	return r.infra
}

// Namespace returns the configured namespace for this registry.
func (r *MetricsRegistry) Namespace() string {
	return r.namespace
}
