package metrics

// TechnicalMetrics aggregates the reservation engine's technical-level
// metrics: the HTTP shell and the store's retry executor.
//
// This is an aggregator struct that groups metrics already implemented in
// separate files (prometheus.go, retry.go) under the technical category.
//
// Example:
//
//	tm := NewTechnicalMetrics("reservo")
//	tm.HTTP.Middleware(next)
//	tm.Retry.RecordAttempt("commit", "success", "none", 0.012)
type TechnicalMetrics struct {
	namespace string

	// HTTP subsystem - request/response metrics from prometheus.go
	HTTP *HTTPMetrics

	// Retry subsystem - transient-fault retry metrics from retry.go
	Retry *RetryMetrics
}

// NewTechnicalMetrics creates a new TechnicalMetrics aggregator.
func NewTechnicalMetrics(namespace string) *TechnicalMetrics {
	return &TechnicalMetrics{
		namespace: namespace,
		HTTP:      NewHTTPMetricsWithNamespace(namespace, "http"),
		Retry:     NewRetryMetrics(),
	}
}
