package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// AirtableConfig describes how to reach the external catalog base.
type AirtableConfig struct {
	APIKey  string  `env:"AIRTABLE_API_KEY"`
	BaseID  string  `env:"AIRTABLE_BASE_ID"`
	Table   string  `env:"AIRTABLE_TABLE" envDefault:"Websites"`
	View    string  `env:"AIRTABLE_VIEW"`
	BaseURL string  `env:"AIRTABLE_BASE_URL" envDefault:"https://api.airtable.com"`
	RPS     float64 `env:"AIRTABLE_RPS" envDefault:"5"`
}

// SyncConfig tunes the full-catalog synchronisation loop.
type SyncConfig struct {
	PageSize     int           `env:"SYNC_PAGE_SIZE" envDefault:"100"`
	PageDelay    time.Duration `env:"SYNC_PAGE_DELAY" envDefault:"200ms"`
	MaxPages     int           `env:"SYNC_MAX_PAGES" envDefault:"100"`
	FetchTimeout time.Duration `env:"SYNC_FETCH_TIMEOUT" envDefault:"30s"`
	Schedule     string        `env:"SYNC_SCHEDULE"`
}

// SearchConfig bounds the dynamic search queries.
type SearchConfig struct {
	Timeout  time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s"`
	MaxLimit int           `env:"SEARCH_MAX_LIMIT" envDefault:"500"`
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL  string        `env:"DATABASE_URL,required"`
	DBMaxConns   int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	Port         string        `env:"PORT" envDefault:"8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding  string        `env:"LOG_ENCODING" envDefault:"json"`
	TokenTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	RateLimitRaw string        `env:"RATE_LIMIT_SYNC" envDefault:"2/min"`

	Airtable AirtableConfig
	Sync     SyncConfig
	Search   SearchConfig

	RateLimitSync RateLimitConfig `env:"-"`
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	rl, err := parseRateLimit(cfg.RateLimitRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SYNC value: %w", err)
	}
	cfg.RateLimitSync = rl

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Sync.PageSize <= 0 || c.Sync.PageSize > 100 {
		return errors.New("SYNC_PAGE_SIZE must be between 1 and 100")
	}
	if c.Sync.MaxPages <= 0 {
		return errors.New("SYNC_MAX_PAGES must be positive")
	}
	if c.Sync.PageDelay <= 0 {
		return errors.New("SYNC_PAGE_DELAY must be positive")
	}
	if c.Airtable.RPS <= 0 {
		return errors.New("AIRTABLE_RPS must be positive")
	}
	if c.Search.MaxLimit <= 0 {
		return errors.New("SEARCH_MAX_LIMIT must be positive")
	}
	return nil
}

// AirtableConfigured reports whether the catalog source credentials are present.
func (c *Config) AirtableConfigured() bool {
	return c.Airtable.APIKey != "" && c.Airtable.BaseID != "" && c.Airtable.Table != ""
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
