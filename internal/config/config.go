// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	PoolSQLite = "sqlite"
	PoolRemote = "remote"
)

type Config struct {
	HTTPAddr         string        `env:"GACHA_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr         string        `env:"GACHA_GRPC_ADDR" envDefault:":9090"`
	DBPath           string        `env:"GACHA_DB_PATH" envDefault:"data/cards.db"`
	CacheDir         string        `env:"GACHA_CACHE_DIR" envDefault:"data/thumbnails"`
	RatesDir         string        `env:"GACHA_RATES_DIR"`
	RatesPoll        time.Duration `env:"GACHA_RATES_POLL" envDefault:"5s"`
	CardAPIURL       string        `env:"GACHA_CARD_API_URL" envDefault:"https://schoolido.lu/api"`
	PoolBackend      string        `env:"GACHA_POOL_BACKEND" envDefault:"sqlite"`
	FetchParallelism int           `env:"GACHA_FETCH_PARALLELISM" envDefault:"8"`
	SyncInterval     time.Duration `env:"GACHA_SYNC_INTERVAL" envDefault:"120s"`
	HTTPTimeout      time.Duration `env:"GACHA_HTTP_TIMEOUT" envDefault:"15s"`
	SessionTTL       time.Duration `env:"GACHA_SESSION_TTL" envDefault:"0s"`
	LogLevelName     string        `env:"GACHA_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint     string        `env:"GACHA_OTEL_ENDPOINT"`

	LogLevel slog.Level `env:"-"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	level, err := ParseLogLevel(c.LogLevelName)
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []error
	switch c.PoolBackend {
	case PoolSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			problems = append(problems, errors.New("GACHA_DB_PATH is required when GACHA_POOL_BACKEND=sqlite"))
		}
	case PoolRemote:
		if strings.TrimSpace(c.CardAPIURL) == "" {
			problems = append(problems, errors.New("GACHA_CARD_API_URL is required when GACHA_POOL_BACKEND=remote"))
		}
	default:
		problems = append(problems, fmt.Errorf("GACHA_POOL_BACKEND must be %q or %q, got %q", PoolSQLite, PoolRemote, c.PoolBackend))
	}
	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		problems = append(problems, errors.New("at least one of GACHA_HTTP_ADDR, GACHA_GRPC_ADDR must be set"))
	}
	if c.CacheDir == "" {
		problems = append(problems, errors.New("GACHA_CACHE_DIR is required"))
	}
	if c.FetchParallelism < 1 {
		problems = append(problems, errors.New("GACHA_FETCH_PARALLELISM must be >= 1"))
	}
	if c.SyncInterval < 0 || c.SessionTTL < 0 || c.RatesPoll < 0 {
		problems = append(problems, errors.New("durations must not be negative"))
	}
	return errors.Join(problems...)
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid GACHA_LOG_LEVEL %q", s)
	}
}
