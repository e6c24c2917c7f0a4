package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		HTTPPort:       "5050",
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file::memory:",
		JWTSecret:      strings.Repeat("s", 32),
		TokenTTL:       time.Hour,
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("EXPIRY_WARNING_DAYS", "")
	t.Setenv("TOKEN_TTL", "")

	cfg := FromEnv()
	assert.Equal(t, "5050", cfg.HTTPPort)
	assert.Equal(t, 30, cfg.ExpiryWarningDays)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("EXPIRY_WARNING_DAYS", "7")
	t.Setenv("EXPIRY_SCAN_INTERVAL", "15m")
	t.Setenv("TOKEN_TTL", "garbage")

	cfg := FromEnv()
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 7, cfg.ExpiryWarningDays)
	assert.Equal(t, 15*time.Minute, cfg.ExpiryScanInterval)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is not set"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32"},
		{"bad driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "DATABASE_DRIVER"},
		{"admin half set", func(c *Config) { c.AdminEmail = "a@b.c" }, "ADMIN_EMAIL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://a.test , http://b.test"}
	assert.Equal(t, "http://a.test,http://b.test", cfg.AllowedOrigins())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("PHARMACY_BASE_URL", "http://env.test:5050")

	cfg, rest, err := LoadClient([]string{"-db", "x.db", "-timeout", "3s", "sync"})
	require.NoError(t, err)
	assert.Equal(t, "http://env.test:5050", cfg.BaseURL)
	assert.Equal(t, "x.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"sync"}, rest)

	_, _, err = LoadClient([]string{"-server", "not a url"})
	assert.Error(t, err)
}
