package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitaliisemenov/reservo/internal/store"
)

const maintenanceSettingKey = "maintenance_mode"

// MaintenanceFlag is a single-entry TTL cache over the system_settings row
// that gates commits with a MAINTENANCE_MODE rejection. Adapted from the
// teacher's StatsCache pattern (stats_cache.go): one value, one expiry, a
// mutex — just enough to keep a hot path off the database on every commit
// while still picking up an operator's flip within the TTL window.
type MaintenanceFlag struct {
	store *store.Store
	ttl   time.Duration

	mu        sync.RWMutex
	cached    bool
	expiresAt time.Time
	logger    *slog.Logger
}

// NewMaintenanceFlag constructs a MaintenanceFlag with the given TTL.
func NewMaintenanceFlag(s *store.Store, ttl time.Duration, logger *slog.Logger) *MaintenanceFlag {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceFlag{store: s, ttl: ttl, logger: logger}
}

// Enabled reports whether maintenance mode is currently on, reloading from
// system_settings when the cached value has expired. A load failure is
// treated as "not in maintenance" so a transient settings-read error does
// not itself take the whole commit path down.
func (f *MaintenanceFlag) Enabled(ctx context.Context) bool {
	f.mu.RLock()
	if time.Now().Before(f.expiresAt) {
		value := f.cached
		f.mu.RUnlock()
		return value
	}
	f.mu.RUnlock()

	value, err := f.load(ctx)
	if err != nil {
		f.logger.Warn("failed to load maintenance flag, assuming disabled", "error", err)
		return false
	}

	f.mu.Lock()
	f.cached = value
	f.expiresAt = time.Now().Add(f.ttl)
	f.mu.Unlock()
	return value
}

func (f *MaintenanceFlag) load(ctx context.Context) (bool, error) {
	var raw string
	err := f.store.QueryRow(ctx, `SELECT value FROM system_settings WHERE key = $1`, maintenanceSettingKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return raw == "true", nil
}

// Invalidate forces the next Enabled call to reload from the store,
// used by the admin surface immediately after toggling the setting.
func (f *MaintenanceFlag) Invalidate() {
	f.mu.Lock()
	f.expiresAt = time.Time{}
	f.mu.Unlock()
}
