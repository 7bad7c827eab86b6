package config

import (
	"errors"
	"log/slog"
)

// Config is the top-level configuration struct for prism.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Update  UpdateConfig  `mapstructure:"update"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig holds runtime-store settings. An empty path selects the
// in-memory store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// UpdateConfig holds recomputation settings.
type UpdateConfig struct {
	CoreWindowDays int `mapstructure:"core_window_days"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default configuration values.
const (
	DefaultStorePath      = ""
	DefaultMetricsEnabled = false
	DefaultMetricsAddr    = ":9090"
	DefaultCoreWindowDays = 90
	DefaultLogLevel       = "info"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidCoreWindow indicates the core window is not positive.
	ErrInvalidCoreWindow = errors.New("update.core_window_days must be positive")
	// ErrInvalidMetricsAddr indicates metrics are enabled without an address.
	ErrInvalidMetricsAddr = errors.New("metrics.addr must be set when metrics are enabled")
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Update.CoreWindowDays <= 0 {
		return ErrInvalidCoreWindow
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return ErrInvalidMetricsAddr
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel maps the configured logging level onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrInvalidLogLevel
	}
}
