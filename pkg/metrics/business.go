package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics tracks the reservation engine's domain-level outcomes:
// commits, cancels, and the reasons a commit was rejected.
//
// Metrics:
//   - reservo_business_commits_total: Successful reservation commits by resource
//   - reservo_business_commit_rejections_total: Rejected commit attempts by reason
//   - reservo_business_cancels_total: Reservation cancellations by resource
//   - reservo_business_commit_duration_seconds: Commit path latency, including lock wait
type BusinessMetrics struct {
	CommitsTotal          *prometheus.CounterVec
	CommitRejectionsTotal *prometheus.CounterVec
	CancelsTotal          *prometheus.CounterVec
	CommitDurationSeconds *prometheus.HistogramVec
}

// NewBusinessMetrics registers the reservation engine's domain metrics under
// namespace with the "business" subsystem.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return &BusinessMetrics{
		CommitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "business",
				Name:      "commits_total",
				Help:      "Total number of successful reservation commits by resource",
			},
			[]string{"resource_id"},
		),
		CommitRejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "business",
				Name:      "commit_rejections_total",
				Help:      "Total number of rejected commit attempts by reason",
			},
			[]string{"reason"},
		),
		CancelsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "business",
				Name:      "cancels_total",
				Help:      "Total number of reservation cancellations by resource",
			},
			[]string{"resource_id"},
		),
		CommitDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "business",
				Name:      "commit_duration_seconds",
				Help:      "Duration of the commit path, including row-lock wait, by outcome",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"outcome"},
		),
	}
}

// RecordCommit records a successful commit against resourceID.
func (m *BusinessMetrics) RecordCommit(resourceID string) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(resourceID).Inc()
}

// RecordRejection records a commit attempt rejected for reason (e.g.
// "RESOURCE_FULL", "RESOURCE_CLOSED", "MAINTENANCE_MODE").
func (m *BusinessMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.CommitRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordCancel records a cancellation against resourceID.
func (m *BusinessMetrics) RecordCancel(resourceID string) {
	if m == nil {
		return
	}
	m.CancelsTotal.WithLabelValues(resourceID).Inc()
}

// ObserveCommitDuration records how long a commit attempt took, labeled by
// its outcome ("committed", "rejected", "conflict").
func (m *BusinessMetrics) ObserveCommitDuration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CommitDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}
