package migrations

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig loads the migration system's configuration from environment
// variables.
func LoadConfig() (*MigrationConfig, error) {
	config := &MigrationConfig{}

	config.Driver = getEnvString("MIGRATION_DRIVER", "postgres")
	config.DSN = getEnvString("MIGRATION_DSN", "")
	config.Dialect = getEnvString("MIGRATION_DIALECT", config.Driver)

	config.Dir = getEnvString("MIGRATION_DIR", "migrations")
	config.Table = getEnvString("MIGRATION_TABLE", "goose_db_version")
	config.Schema = getEnvString("MIGRATION_SCHEMA", "public")

	config.Timeout = getEnvDuration("MIGRATION_TIMEOUT", 5*time.Minute)
	config.MaxRetries = getEnvInt("MIGRATION_MAX_RETRIES", 3)
	config.RetryDelay = getEnvDuration("MIGRATION_RETRY_DELAY", 5*time.Second)

	config.Verbose = getEnvBool("MIGRATION_VERBOSE", false)
	config.DryRun = getEnvBool("MIGRATION_DRY_RUN", false)
	config.AllowOutOfOrder = getEnvBool("MIGRATION_ALLOW_OUT_OF_ORDER", false)

	config.NoVersioning = getEnvBool("MIGRATION_NO_VERSIONING", false)
	config.LockTimeout = getEnvDuration("MIGRATION_LOCK_TIMEOUT", 10*time.Second)

	config.EnableMetrics = getEnvBool("MIGRATION_METRICS", true)
	config.EnableTracing = getEnvBool("MIGRATION_TRACING", false)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid migration configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for consistency.
func (c *MigrationConfig) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("database driver cannot be empty")
	}
	if c.DSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if c.Dir == "" {
		return fmt.Errorf("migration directory cannot be empty")
	}
	if c.Table == "" {
		return fmt.Errorf("migration table name cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// PrintConfig logs the current configuration.
func (c *MigrationConfig) PrintConfig(logger *slog.Logger) {
	logger.Info("migration configuration",
		"driver", c.Driver,
		"dialect", c.Dialect,
		"dir", c.Dir,
		"table", c.Table,
		"schema", c.Schema,
		"timeout", c.Timeout,
		"verbose", c.Verbose,
		"allow_out_of_order", c.AllowOutOfOrder,
		"no_versioning", c.NoVersioning,
		"enable_metrics", c.EnableMetrics,
		"enable_tracing", c.EnableTracing,
	)
}

// GetDSN returns the DSN with its password masked, safe for logging.
func (c *MigrationConfig) GetDSN() string {
	dsn := c.DSN
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	if strings.Contains(dsn, "password=") {
		parts := strings.Split(dsn, "password=")
		if len(parts) > 1 {
			passwordPart := parts[1]
			if idx := strings.Index(passwordPart, " "); idx > 0 {
				passwordPart = passwordPart[:idx]
			}
			dsn = parts[0] + "password=***" + strings.TrimPrefix(parts[1], passwordPart)
		}
	}
	return dsn
}

// IsProduction reports whether the process is running in a production
// environment, per the ENV variable.
func (c *MigrationConfig) IsProduction() bool {
	env := getEnvString("ENV", "development")
	return env == "production" || env == "prod"
}

// IsDevelopment reports whether the process is running in a development
// environment, per the ENV variable.
func (c *MigrationConfig) IsDevelopment() bool {
	env := getEnvString("ENV", "development")
	return env == "development" || env == "dev"
}
