package config

import (
	"errors"
	"flag"
	"net/url"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the pharmacy client.
type ClientConfig struct {
	BaseURL string
	DBPath  string
	Timeout time.Duration
}

// LoadClient reads env defaults (and .env) then applies flags from args.
// Remaining positional arguments are returned.
func LoadClient(args []string) (*ClientConfig, []string, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		BaseURL: getEnv("PHARMACY_BASE_URL", "http://localhost:5050"),
		DBPath:  getEnv("PHARMACY_DB", "pharmacy.db"),
		Timeout: getDuration("PHARMACY_TIMEOUT", 10*time.Second),
	}

	fs := flag.NewFlagSet("pharmacy", flag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "server", cfg.BaseURL, "backend base URL")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "local cache database file")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("server must be an absolute URL")
	}
	if c.DBPath == "" {
		return errors.New("db path is empty")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}
