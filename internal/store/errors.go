package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for pool lifecycle problems.
var (
	ErrNotConnected     = errors.New("store is not connected")
	ErrConnectionClosed = errors.New("store connection pool is closed")
	ErrConnectionFailed = errors.New("failed to connect to database")
	ErrInvalidConfig    = errors.New("invalid store configuration")
)

// retryableSQLStates are SQLSTATE codes under which a transaction can be
// safely retried by the caller: serialization failures, deadlocks, lock
// timeouts, and statement/connection hiccups. This table is the basis for
// the §7 CONCURRENCY_CONFLICT / retryable-fault taxonomy.
var retryableSQLStates = map[string]bool{
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement_timeout)
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

// TransactionFault wraps a failure that occurred inside a Store-scoped
// transaction, carrying whether the caller may retry it.
type TransactionFault struct {
	Retryable bool
	Err       error
}

func (f *TransactionFault) Error() string { return f.Err.Error() }
func (f *TransactionFault) Unwrap() error { return f.Err }

// classify wraps err, if non-nil, in a TransactionFault with its
// retryability determined from the Postgres SQLSTATE code (when present)
// or from context deadline/cancellation.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &TransactionFault{Retryable: retryableSQLStates[pgErr.Code], Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransactionFault{Retryable: true, Err: err}
	}
	return &TransactionFault{Retryable: false, Err: err}
}

// IsRetryable reports whether err (as returned by Store.WithTransaction)
// represents a condition the caller may retry.
func IsRetryable(err error) bool {
	var fault *TransactionFault
	if errors.As(err, &fault) {
		return fault.Retryable
	}
	return false
}

// WrapOperation annotates err with the repository operation that produced
// it, without losing the ability to classify it with errors.As.
func WrapOperation(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}
