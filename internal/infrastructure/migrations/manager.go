package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationConfig configures the migration system.
type MigrationConfig struct {
	Driver  string `env:"MIGRATION_DRIVER" default:"postgres"`
	DSN     string `env:"MIGRATION_DSN" default:""`
	Dialect string `env:"MIGRATION_DIALECT" default:"postgres"`

	Dir    string `env:"MIGRATION_DIR" default:"migrations"`
	Table  string `env:"MIGRATION_TABLE" default:"goose_db_version"`
	Schema string `env:"MIGRATION_SCHEMA" default:"public"`

	Timeout    time.Duration `env:"MIGRATION_TIMEOUT" default:"5m"`
	MaxRetries int           `env:"MIGRATION_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `env:"MIGRATION_RETRY_DELAY" default:"5s"`

	Verbose         bool `env:"MIGRATION_VERBOSE" default:"false"`
	DryRun          bool `env:"MIGRATION_DRY_RUN" default:"false"`
	AllowOutOfOrder bool `env:"MIGRATION_ALLOW_OUT_OF_ORDER" default:"false"`

	NoVersioning bool          `env:"MIGRATION_NO_VERSIONING" default:"false"`
	LockTimeout  time.Duration `env:"MIGRATION_LOCK_TIMEOUT" default:"10s"`

	EnableMetrics bool `env:"MIGRATION_METRICS" default:"true"`
	EnableTracing bool `env:"MIGRATION_TRACING" default:"false"`

	// Logger is not sourced from the environment; callers set it directly.
	Logger *slog.Logger
}

// MigrationStatus is the applied/pending state of one migration version.
type MigrationStatus struct {
	VersionID   int64     `json:"version_id"`
	IsApplied   bool      `json:"is_applied"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
}

// MigrationFile describes one migration file on disk.
type MigrationFile struct {
	Path        string    `json:"path"`
	Version     int64     `json:"version"`
	Filename    string    `json:"filename"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// MigrationManager wraps goose to apply, roll back, and inspect the schema
// migrations for the reservation engine's Postgres store.
type MigrationManager struct {
	config *MigrationConfig
	db     *sql.DB
	logger *slog.Logger
	errors *ErrorHandler
}

// NewMigrationManager opens a dedicated *sql.DB for migration operations,
// separate from the pgx pool the running service uses.
func NewMigrationManager(config *MigrationConfig) (*MigrationManager, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	errorHandler := NewErrorHandler(logger, config.MaxRetries, config.RetryDelay)

	return &MigrationManager{config: config, db: db, logger: logger, errors: errorHandler}, nil
}

// Connect verifies the migration database connection is reachable.
func (mm *MigrationManager) Connect(ctx context.Context) error {
	if err := mm.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	mm.logger.Info("connected to database for migrations",
		"driver", mm.config.Driver,
		"dialect", mm.config.Dialect)

	return nil
}

// Disconnect closes the migration database connection.
func (mm *MigrationManager) Disconnect(ctx context.Context) error {
	if mm.db == nil {
		return nil
	}
	if err := mm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	mm.logger.Info("disconnected from database")
	return nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up(ctx context.Context) error {
	mm.logger.Info("starting migration up")

	start := time.Now()
	defer func() { mm.logger.Info("migration up completed", "duration", time.Since(start)) }()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := mm.errors.ExecuteWithRetry(ctx, func() error { return goose.Up(mm.db, mm.config.Dir) }); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	mm.logger.Info("all migrations applied successfully")
	return nil
}

// UpTo applies migrations up to and including version.
func (mm *MigrationManager) UpTo(ctx context.Context, version int64) error {
	mm.logger.Info("starting migration up to version", "version", version)

	start := time.Now()
	defer func() {
		mm.logger.Info("migration up to version completed", "version", version, "duration", time.Since(start))
	}()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpTo(mm.db, mm.config.Dir, version); err != nil {
		return fmt.Errorf("failed to apply migrations up to version %d: %w", version, err)
	}

	mm.logger.Info("migrations applied up to version", "version", version)
	return nil
}

// UpByOne applies the next pending migration only.
func (mm *MigrationManager) UpByOne(ctx context.Context) error {
	mm.logger.Info("starting migration up by one")

	start := time.Now()
	defer func() { mm.logger.Info("migration up by one completed", "duration", time.Since(start)) }()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpByOne(mm.db, mm.config.Dir); err != nil {
		return fmt.Errorf("failed to apply next migration: %w", err)
	}

	mm.logger.Info("next migration applied successfully")
	return nil
}

// Down rolls back every applied migration.
func (mm *MigrationManager) Down(ctx context.Context) error {
	mm.logger.Info("starting migration down")

	start := time.Now()
	defer func() { mm.logger.Info("migration down completed", "duration", time.Since(start)) }()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := mm.errors.ExecuteWithRetry(ctx, func() error { return goose.Reset(mm.db, mm.config.Dir) }); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	mm.logger.Info("all migrations rolled back successfully")
	return nil
}

// DownTo rolls back migrations down to version.
func (mm *MigrationManager) DownTo(ctx context.Context, version int64) error {
	mm.logger.Info("starting migration down to version", "version", version)

	start := time.Now()
	defer func() {
		mm.logger.Info("migration down to version completed", "version", version, "duration", time.Since(start))
	}()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.DownTo(mm.db, mm.config.Dir, version); err != nil {
		return fmt.Errorf("failed to rollback migrations to version %d: %w", version, err)
	}

	mm.logger.Info("migrations rolled back to version", "version", version)
	return nil
}

// DownByOne rolls back the most recently applied migration only.
func (mm *MigrationManager) DownByOne(ctx context.Context) error {
	mm.logger.Info("starting migration down by one")

	start := time.Now()
	defer func() { mm.logger.Info("migration down by one completed", "duration", time.Since(start)) }()

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Down(mm.db, mm.config.Dir); err != nil {
		return fmt.Errorf("failed to rollback next migration: %w", err)
	}

	mm.logger.Info("previous migration rolled back successfully")
	return nil
}

// Status prints the applied/pending state of every known migration through
// goose.Status. The returned slice is always empty: per-migration statuses
// are not collected into MigrationStatus values.
func (mm *MigrationManager) Status(ctx context.Context) ([]*MigrationStatus, error) {
	mm.logger.Info("getting migration status")

	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Status(mm.db, mm.config.Dir); err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	statuses := []*MigrationStatus{}
	mm.logger.Info("migration status retrieved", "total_migrations", len(statuses))
	return statuses, nil
}

// Version returns the database's current migration version.
func (mm *MigrationManager) Version(ctx context.Context) (int64, error) {
	if err := goose.SetDialect(mm.config.Dialect); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersion(mm.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}

	mm.logger.Info("current migration version", "version", version)
	return version, nil
}

// List enumerates migration files in the configured directory.
func (mm *MigrationManager) List(ctx context.Context) ([]*MigrationFile, error) {
	mm.logger.Info("listing migration files")

	files, err := filepath.Glob(filepath.Join(mm.config.Dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to list migration files: %w", err)
	}

	migrations := make([]*MigrationFile, 0, len(files))
	for _, file := range files {
		migrations = append(migrations, &MigrationFile{
			Path:      file,
			Filename:  filepath.Base(file),
			CreatedAt: time.Now(),
		})
	}

	mm.logger.Info("migration files listed", "count", len(migrations))
	return migrations, nil
}

// Create writes a new, empty goose migration file named after name.
func (mm *MigrationManager) Create(ctx context.Context, name string) (string, error) {
	mm.logger.Info("creating new migration", "name", name)

	filename := fmt.Sprintf("%s/%d_%s.sql", mm.config.Dir, time.Now().Unix(), name)
	content := `-- +goose Up
-- Migration: ` + name + `
-- Created: ` + time.Now().Format("2006-01-02 15:04:05") + `

-- Add your migration SQL here

-- +goose Down
-- Rollback migration: ` + name + `

-- Add your rollback SQL here
`

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to create migration file: %w", err)
	}

	mm.logger.Info("migration created", "filename", filename)
	return filename, nil
}

// GetConfig returns the manager's configuration.
func (mm *MigrationManager) GetConfig() *MigrationConfig {
	return mm.config
}
