package store

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/vitaliisemenov/reservo/pkg/metrics"
)

// RetryConfig controls the exponential backoff applied around a retryable
// transaction fault, such as a serialization failure from the commit path's
// row lock contention (§7 CONCURRENCY_CONFLICT).
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultRetryConfig returns a default backoff: 3 retries starting at 50ms,
// doubling up to 1s, with 20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}
}

// RetryExecutor re-runs an operation while its error is classified as
// retryable (deadlock, serialization failure, lock timeout), applying
// exponential backoff with jitter between attempts.
type RetryExecutor struct {
	config  RetryConfig
	logger  *slog.Logger
	metrics *metrics.RetryMetrics
}

// NewRetryExecutor constructs a RetryExecutor. Metrics are labelled per call
// by the label argument of Execute (e.g. "commit", "cancel"), so retries are
// distinguishable per call site in Prometheus.
func NewRetryExecutor(config RetryConfig, logger *slog.Logger) *RetryExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryExecutor{config: config, logger: logger, metrics: metrics.NewRetryMetrics()}
}

// Execute runs operation, retrying on retryable faults up to MaxRetries
// times. It returns the first non-retryable error, or the last error once
// retries are exhausted. label identifies the call site for metrics, e.g.
// "commit" or "cancel".
func (r *RetryExecutor) Execute(ctx context.Context, label string, operation func() error) error {
	var lastErr error
	delay := r.config.InitialDelay
	start := time.Now()

	attempt := 0
	for ; attempt <= r.config.MaxRetries; attempt++ {
		attemptStart := time.Now()
		err := operation()
		errorType := "none"
		if err != nil {
			errorType = classifyError(err)
		}

		if err == nil {
			r.metrics.RecordAttempt(label, "success", errorType, time.Since(attemptStart).Seconds())
			r.metrics.RecordFinalAttempt(label, "success", attempt+1)
			if attempt > 0 {
				r.logger.Info("operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		lastErr = err
		r.metrics.RecordAttempt(label, "failure", errorType, time.Since(attemptStart).Seconds())

		if attempt < r.config.MaxRetries && IsRetryable(err) {
			r.logger.Warn("operation failed, retrying",
				"attempt", attempt+1, "max_retries", r.config.MaxRetries, "delay", delay, "error", err)

			r.metrics.RecordBackoff(label, delay.Seconds())
			if !r.wait(ctx, delay) {
				r.metrics.RecordFinalAttempt(label, "cancelled", attempt+1)
				return ctx.Err()
			}
			delay = r.nextDelay(delay)
			continue
		}
		break
	}

	r.metrics.RecordFinalAttempt(label, "failure", attempt+1)
	r.logger.Error("operation failed after all retries",
		"max_retries", r.config.MaxRetries, "error", lastErr, "duration", time.Since(start))
	return lastErr
}

// classifyError buckets a retry error into a coarse Prometheus label without
// leaking the full error text (which may contain a DSN or query fragment)
// into a metric label value.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsRetryable(err):
		return "transient"
	default:
		return "fatal"
	}
}

func (r *RetryExecutor) wait(ctx context.Context, delay time.Duration) bool {
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *RetryExecutor) nextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * r.config.BackoffFactor)
	if next > r.config.MaxDelay {
		next = r.config.MaxDelay
	}
	if r.config.JitterFactor > 0 {
		next += time.Duration(float64(next) * r.config.JitterFactor * rand.Float64())
	}
	return next
}
