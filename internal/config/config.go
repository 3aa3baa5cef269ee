// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// WaitTimeout bounds one long-poll on a generation job. Defaults to 8s.
	WaitTimeout time.Duration

	FX  FXConfig
	Job JobConfig
}

// FXConfig selects and tunes the currency converter.
type FXConfig struct {
	// ReportingCurrency is the currency budget totals are expressed in. Defaults to "USD".
	ReportingCurrency string

	// RatesURL, when set, points at a "latest rates" service. When empty the
	// fixed StaticRates table is used.
	RatesURL string

	// StaticRates is a "EUR=1.08,JPY=0.0067" list, one unit of each code in
	// the reporting currency.
	StaticRates string

	RatePerSecond  float64
	Timeout        time.Duration
	MaxConcurrency int
}

// JobConfig bounds the generation job poller.
type JobConfig struct {
	PollInterval time.Duration
	MaxPolls     int
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory (or the file named by ENV_FILE) is
// loaded first; variables already set in the environment win.
// Returns an error listing any required variables that are not set, or
// naming the first variable that does not parse.
func Load() (Config, error) {
	if err := loadEnv(); err != nil {
		return Config{}, err
	}

	p := &parser{}
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes: p.int64("MAX_BODY_BYTES", 1<<20),
		WaitTimeout:  p.duration("WAIT_TIMEOUT", 8*time.Second),
		FX: FXConfig{
			ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "USD")),
			RatesURL:          os.Getenv("FX_RATES_URL"),
			StaticRates:       os.Getenv("FX_STATIC_RATES"),
			RatePerSecond:     p.float("FX_RATE_LIMIT_PER_SECOND", 5),
			Timeout:           p.duration("FX_TIMEOUT", 5*time.Second),
			MaxConcurrency:    p.int("FX_MAX_CONCURRENCY", 4),
		},
		Job: JobConfig{
			PollInterval: p.duration("JOB_POLL_INTERVAL", 3*time.Second),
			MaxPolls:     p.int("JOB_MAX_POLLS", 100),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL: unknown level %q", cfg.LogLevel)
	}
	if len(cfg.FX.ReportingCurrency) != 3 {
		return Config{}, fmt.Errorf("REPORTING_CURRENCY: %q is not a 3-letter code", cfg.FX.ReportingCurrency)
	}

	return cfg, nil
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// parser reads typed variables and remembers the first failure.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: invalid value %q: %w", key, raw, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) int64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
