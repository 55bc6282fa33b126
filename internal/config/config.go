// Package config loads the reservation engine's configuration via
// spf13/viper: a nested Config struct bound from a YAML file, overridden by
// RESV_-prefixed environment variables, with every section defaulted and
// the server, database, cache, log and auth settings validated before the
// service starts.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Port                    int           `mapstructure:"port"`
	Host                    string        `mapstructure:"host"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection and transaction-scope
// configuration, matching internal/store.Config's fields one-to-one.
type DatabaseConfig struct {
	Host                    string `mapstructure:"host"`
	Port                    int    `mapstructure:"port"`
	Database                string `mapstructure:"database"`
	User                    string `mapstructure:"user"`
	Password                string `mapstructure:"password"`
	SSLMode                 string `mapstructure:"ssl_mode"`
	MaxConnections          int32  `mapstructure:"max_connections"`
	MinConnections          int32  `mapstructure:"min_connections"`
	MaxConnLifetimeSeconds  int    `mapstructure:"max_connection_lifetime_seconds"`
	MaxConnIdleTimeSeconds  int    `mapstructure:"idle_timeout_seconds"`
	ConnectTimeoutSeconds   int    `mapstructure:"connect_timeout_seconds"`
	StatementTimeoutMs      int    `mapstructure:"statement_timeout_ms"`
	LockTimeoutMs           int    `mapstructure:"lock_timeout_ms"`
	HealthCheckPeriodSecond int    `mapstructure:"health_check_period_seconds"`
}

// CacheConfig holds the Availability Cache's sizing knobs.
type CacheConfig struct {
	TTLMs   int `mapstructure:"ttl_ms"`
	MaxSize int `mapstructure:"max_size"`
}

// LogConfig holds structured-logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig holds the per-client token-bucket limiter configuration.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// AuthConfig holds the static API keys gating the reservation and admin
// surfaces.
type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

// CORSConfig holds allowed-origin configuration for browser clients.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig loads configuration from an optional file and RESV_-prefixed
// environment variables, then validates the result.
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RESV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables only,
// useful for tests and container deployments with no mounted config file.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig("")
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "reservo")
	viper.SetDefault("database.user", "reservo")
	viper.SetDefault("database.password", "reservo")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 50)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_connection_lifetime_seconds", 1800)
	viper.SetDefault("database.idle_timeout_seconds", 300)
	viper.SetDefault("database.connect_timeout_seconds", 10)
	viper.SetDefault("database.statement_timeout_ms", 30000)
	viper.SetDefault("database.lock_timeout_ms", 10000)
	viper.SetDefault("database.health_check_period_seconds", 30)

	viper.SetDefault("cache.ttl_ms", 3000)
	viper.SetDefault("cache.max_size", 10000)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.filename", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_minute", 100)
	viper.SetDefault("rate_limit.burst", 20)

	viper.SetDefault("auth.enabled", true)
	viper.SetDefault("auth.api_key", "")
	viper.SetDefault("auth.admin_api_key", "")

	viper.SetDefault("cors.enabled", true)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate checks the Server, Database, Cache and Log sections and the Auth
// API key for internally-consistent values; the Metrics, RateLimit and CORS
// sections are not checked. The first violation found is returned.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Cache.validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth: api_key must be set when auth is enabled")
	}
	return nil
}

func (s ServerConfig) validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
	}
	if d.Database == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if d.User == "" {
		return fmt.Errorf("user must not be empty")
	}
	if d.MinConnections > d.MaxConnections {
		return fmt.Errorf("min_connections (%d) must not exceed max_connections (%d)", d.MinConnections, d.MaxConnections)
	}
	if d.StatementTimeoutMs <= 0 {
		return fmt.Errorf("statement_timeout_ms must be positive")
	}
	if d.LockTimeoutMs <= 0 {
		return fmt.Errorf("lock_timeout_ms must be positive")
	}
	switch d.SSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid ssl_mode %q", d.SSLMode)
	}
	return nil
}

func (c CacheConfig) validate() error {
	if c.TTLMs <= 0 {
		return fmt.Errorf("ttl_ms must be positive")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	return nil
}

func (l LogConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q", l.Level)
	}
	switch l.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format %q", l.Format)
	}
	return nil
}
