package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MigrationError wraps a failed migration operation with enough context to
// diagnose it after the fact.
type MigrationError struct {
	Operation string
	Version   int64
	Cause     error
	Timestamp time.Time
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed at version %d: %v", e.Operation, e.Version, e.Cause)
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// ErrorHandler classifies migration failures and retries the ones caused by
// transient conditions (connection resets, lock contention) with a fixed
// delay between attempts.
type ErrorHandler struct {
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewErrorHandler constructs an ErrorHandler.
func NewErrorHandler(logger *slog.Logger, maxRetries int, retryDelay time.Duration) *ErrorHandler {
	return &ErrorHandler{logger: logger, maxRetries: maxRetries, retryDelay: retryDelay}
}

// HandleError records a failed operation as a *MigrationError for the caller
// to return or wrap further.
func (eh *ErrorHandler) HandleError(ctx context.Context, err error, operation string, version int64) error {
	migrationErr := &MigrationError{
		Operation: operation,
		Version:   version,
		Cause:     err,
		Timestamp: time.Now(),
	}

	eh.logger.Error("migration error",
		"operation", operation,
		"version", version,
		"error", err)

	if eh.isRetryable(err) {
		eh.logger.Info("error is retryable", "operation", operation, "version", version)
	}

	return migrationErr
}

// ExecuteWithRetry runs operation, retrying up to maxRetries times (with
// retryDelay between attempts) while the returned error looks transient.
func (eh *ErrorHandler) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= eh.maxRetries; attempt++ {
		if attempt > 0 {
			eh.logger.Info("retrying migration operation", "attempt", attempt, "max_retries", eh.maxRetries)

			select {
			case <-time.After(eh.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := operation(); err != nil {
			lastErr = err

			if !eh.isRetryable(err) {
				break
			}

			eh.logger.Warn("migration operation failed, retrying", "attempt", attempt+1, "error", err)
			continue
		}

		if attempt > 0 {
			eh.logger.Info("migration operation succeeded after retry", "attempts", attempt+1)
		}
		return nil
	}

	eh.logger.Error("migration operation failed after all retries", "max_retries", eh.maxRetries, "last_error", lastErr)
	return lastErr
}

// isRetryable reports whether err looks like a transient connection or lock
// condition rather than a schema or programming error.
func (eh *ErrorHandler) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"connection lost",
		"timeout",
		"deadline exceeded",

		"lock wait timeout",
		"deadlock",
		"serialization failure",
		"could not serialize access",

		"temporary failure",
		"service unavailable",
		"server closed the connection unexpectedly",

		"too many connections",

		"current transaction is aborted",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
