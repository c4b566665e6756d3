package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Lifecycle timings. Cooling falls back to start_time + StaleAfter when
	// an event has no end_time.
	LifecycleInterval time.Duration `env:"LIFECYCLE_INTERVAL" default:"5m"`
	StaleAfter        time.Duration `env:"STALE_AFTER" default:"12h"`
	CoolingFor        time.Duration `env:"COOLING_FOR" default:"6h"`
	ArchiveRetention  time.Duration `env:"ARCHIVE_RETENTION" default:"48h"`

	// Soft friction for fresh device tokens.
	FreshDeviceWindow time.Duration `env:"FRESH_DEVICE_WINDOW" default:"5m"`
	FreshDeviceVotes  int           `env:"FRESH_DEVICE_VOTES" default:"10"`
	FreshDevicePosts  int           `env:"FRESH_DEVICE_POSTS" default:"3"`
	PostGap           time.Duration `env:"POST_GAP" default:"3m"`

	// Automated harvest of public event feeds.
	HarvestSourceURL string        `env:"HARVEST_SOURCE_URL"`
	HarvestInterval  time.Duration `env:"HARVEST_INTERVAL" default:"1h"`
	HarvestCity      string        `env:"HARVEST_CITY" default:"goa"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.HarvestSourceURL != "" {
		if _, err := url.ParseRequestURI(cfg.HarvestSourceURL); err != nil {
			return fmt.Errorf("HARVEST_SOURCE_URL must be a valid URL: %w", err)
		}
	}

	positive := map[string]time.Duration{
		"LIFECYCLE_INTERVAL":  cfg.LifecycleInterval,
		"STALE_AFTER":         cfg.StaleAfter,
		"COOLING_FOR":         cfg.CoolingFor,
		"ARCHIVE_RETENTION":   cfg.ArchiveRetention,
		"FRESH_DEVICE_WINDOW": cfg.FreshDeviceWindow,
		"POST_GAP":            cfg.PostGap,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.FreshDeviceVotes <= 0 || cfg.FreshDevicePosts <= 0 {
		return fmt.Errorf("fresh device limits must be positive")
	}

	return nil
}
