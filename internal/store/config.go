package store

import (
	"fmt"
	"time"
)

// Config holds connection, pool, and timeout settings for the Store. Field
// names line up with the EXTERNAL INTERFACES enumerated configuration
// (dbMaxConnections, dbStatementTimeoutMs, dbLockTimeoutMs, ...).
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxConns int32 `mapstructure:"max_connections"`
	MinConns int32 `mapstructure:"min_connections"`

	MaxConnLifetime   time.Duration `mapstructure:"max_connection_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"idle_timeout"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`

	// StatementTimeout and LockTimeout are applied per-transaction via
	// SET LOCAL; breaches surface as retryable TransactionFaults (§4.1).
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
}

// DefaultConfig returns the defaults named in SPEC_FULL §6.
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              5432,
		Database:          "reservo",
		User:              "reservo",
		Password:          "",
		SSLMode:           "disable",
		MaxConns:          50,
		MinConns:          5,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    10 * time.Second,
		StatementTimeout:  30 * time.Second,
		LockTimeout:       10 * time.Second,
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be greater than 0")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("min connections cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections cannot be greater than max connections")
	}
	if c.StatementTimeout <= 0 {
		return fmt.Errorf("statement timeout must be greater than 0")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be greater than 0")
	}

	validSSLModes := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
	}
	return nil
}

// DSN returns the connection string pgxpool.ParseConfig expects.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
