package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=pharmacie port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	TokenTTL       time.Duration
	LogLevel       string

	// Lots expiring within this many days raise an EXPIRATION alert.
	ExpiryWarningDays  int
	ExpiryScanInterval time.Duration

	// Optional first administrator, created at startup if no admin exists.
	AdminEmail    string
	AdminPassword string

	// Login attempts per IP per minute.
	LoginRateLimit int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, set your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value.")
	}

	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "5050"),
		DatabaseDriver:     strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:        getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		TokenTTL:           getDuration("TOKEN_TTL", 24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ExpiryWarningDays:  getInt("EXPIRY_WARNING_DAYS", 30),
		ExpiryScanInterval: getDuration("EXPIRY_SCAN_INTERVAL", time.Hour),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		LoginRateLimit:     getInt("LOGIN_RATE_LIMIT", 10),
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.ExpiryWarningDays < 0 {
		return errors.New("EXPIRY_WARNING_DAYS must not be negative")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS and trims each entry.
func (c *Config) AllowedOrigins() string {
	origins := strings.Split(c.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}
