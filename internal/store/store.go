// Package store provides the transactional Postgres-backed Store: a
// connection pool, scoped transaction acquisition with statement and
// lock-wait timeouts, and fault classification for retryable conditions.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the transactional handle repositories and services acquire
// connections and transactions through. The pool stays inside this package;
// callers use the Store's query methods or the pgx.Tx that WithTransaction
// hands them.
type Store struct {
	pool     *pgxpool.Pool
	config   *Config
	logger   *slog.Logger
	isClosed atomic.Bool
}

// New constructs a Store. Connect must be called before use.
func New(config *Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{config: config, logger: logger}
}

// Connect establishes the connection pool and verifies connectivity.
func (s *Store) Connect(ctx context.Context) error {
	if s.isClosed.Load() {
		return ErrConnectionClosed
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.logger.Info("connecting to postgres",
		"host", s.config.Host, "port", s.config.Port,
		"database", s.config.Database, "max_conns", s.config.MaxConns, "min_conns", s.config.MinConns)

	poolConfig, err := pgxpool.ParseConfig(s.config.DSN())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	poolConfig.MaxConns = s.config.MaxConns
	poolConfig.MinConns = s.config.MinConns
	poolConfig.MaxConnLifetime = s.config.MaxConnLifetime
	poolConfig.MaxConnIdleTime = s.config.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = s.config.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	start := time.Now()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	s.pool = pool
	s.logger.Info("connected to postgres", "connection_time", time.Since(start))
	return nil
}

// Disconnect drains and closes the pool.
func (s *Store) Disconnect(context.Context) error {
	if s.pool == nil {
		return nil
	}
	if s.isClosed.Swap(true) {
		return ErrConnectionClosed
	}
	s.logger.Info("disconnecting from postgres")
	s.pool.Close()
	return nil
}

// Close is an alias for Disconnect with a background context, matching the
// io.Closer convention used by the rest of the service's shutdown path.
func (s *Store) Close() error {
	return s.Disconnect(context.Background())
}

// IsConnected reports whether the pool is open and has live connections.
func (s *Store) IsConnected() bool {
	if s.isClosed.Load() || s.pool == nil {
		return false
	}
	return s.pool.Stat().TotalConns() > 0
}

// Health pings the database, used by the /healthz liveness handler.
func (s *Store) Health(ctx context.Context) error {
	if s.isClosed.Load() {
		return ErrConnectionClosed
	}
	if s.pool == nil {
		return ErrNotConnected
	}
	return s.pool.Ping(ctx)
}

// Stats exposes raw pgxpool statistics for the metrics exporter.
func (s *Store) Stats() *pgxpool.Stat {
	if s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}

// Exec runs a statement against the pool directly (no transaction), used by
// admin paths that do not need the FOR UPDATE lock discipline.
func (s *Store) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if s.pool == nil {
		return pgconn.CommandTag{}, ErrNotConnected
	}
	return s.pool.Exec(ctx, sql, args...)
}

// QueryRow runs a single-row query against the pool directly.
func (s *Store) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if s.pool == nil {
		return &errorRow{err: ErrNotConnected}
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

// Query runs a multi-row query against the pool directly.
func (s *Store) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if s.pool == nil {
		return nil, ErrNotConnected
	}
	return s.pool.Query(ctx, sql, args...)
}

// WithTransaction is the Store's scoped-acquisition primitive: it begins a
// transaction, applies the configured statement and lock-wait timeouts,
// runs body, and commits on nil return or rolls back otherwise. Both the
// commit and rollback paths are guaranteed regardless of how body exits
// (normal return, error return, or panic).
func (s *Store) WithTransaction(ctx context.Context, body func(tx pgx.Tx) error) (err error) {
	if s.pool == nil {
		return ErrNotConnected
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error("rollback failed", "error", rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	if _, setErr := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", s.config.StatementTimeout.Milliseconds())); setErr != nil {
		return classify(setErr)
	}
	if _, setErr := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", s.config.LockTimeout.Milliseconds())); setErr != nil {
		return classify(setErr)
	}

	if bodyErr := body(tx); bodyErr != nil {
		err = classify(bodyErr)
		return err
	}
	return nil
}

// errorRow implements pgx.Row for the not-connected case.
type errorRow struct{ err error }

func (r *errorRow) Scan(...interface{}) error { return r.err }
