package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// resetViper isolates each test's global viper state; LoadConfig relies on
// package-level viper defaults and this suite exercises many variations.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	resetViper(t)
	t.Setenv("RESV_AUTH_API_KEY", "test-key")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "reservo", cfg.Database.Database)
	require.Equal(t, int32(50), cfg.Database.MaxConnections)
	require.Equal(t, 30000, cfg.Database.StatementTimeoutMs)
	require.Equal(t, 10000, cfg.Database.LockTimeoutMs)
	require.Equal(t, 10000, cfg.Cache.MaxSize)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "test-key", cfg.Auth.APIKey)
}

func TestLoadConfigFromEnv_MissingAPIKeyWhenAuthEnabled(t *testing.T) {
	resetViper(t)

	_, err := LoadConfigFromEnv()
	require.Error(t, err)
}

func TestLoadConfigFromEnv_EnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("RESV_AUTH_API_KEY", "test-key")
	t.Setenv("RESV_SERVER_PORT", "9090")
	t.Setenv("RESV_DATABASE_MAX_CONNECTIONS", "10")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, int32(10), cfg.Database.MaxConnections)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8080, Host: "0.0.0.0"},
			Database: DatabaseConfig{
				Host: "localhost", Port: 5432, Database: "reservo", User: "reservo",
				SSLMode: "disable", MaxConnections: 50, MinConnections: 5,
				StatementTimeoutMs: 30000, LockTimeoutMs: 10000,
			},
			Cache: CacheConfig{TTLMs: 3000, MaxSize: 10000},
			Log:   LogConfig{Level: "info", Format: "json"},
			Auth:  AuthConfig{Enabled: true, APIKey: "k"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"empty db host", func(c *Config) { c.Database.Host = "" }, true},
		{"min exceeds max conns", func(c *Config) { c.Database.MinConnections = 100 }, true},
		{"zero statement timeout", func(c *Config) { c.Database.StatementTimeoutMs = 0 }, true},
		{"bad ssl mode", func(c *Config) { c.Database.SSLMode = "nope" }, true},
		{"zero cache ttl", func(c *Config) { c.Cache.TTLMs = 0 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"auth enabled without key", func(c *Config) { c.Auth.APIKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
