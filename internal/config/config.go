// Package config loads studytime settings from the config file and the
// command line.
package config

import (
	"time"

	"github.com/ayoisaiah/studytime/internal/mode"
)

type (
	// Config holds all configuration settings
	Config struct {
		System  SystemConfig
		Timer   TimerConfig
		Sync    SyncConfig
		Logging LoggingConfig
	}

	// TimerConfig holds the timer mode and its durations
	TimerConfig struct {
		SessionCmd   string
		Mode         mode.Spec
		TickInterval time.Duration
	}

	// SyncConfig holds remote sync settings
	SyncConfig struct {
		Backend       Backend
		DSN           string
		NATSURL       string
		SubjectPrefix string
		TokenFile     string
		Interval      time.Duration
		ProbeInterval time.Duration
		BaseDelay     time.Duration
		MaxDelay      time.Duration
		MaxJitter     time.Duration
	}

	// LoggingConfig holds log level and rotation settings
	LoggingConfig struct {
		Level      string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	// SystemConfig holds file locations
	SystemConfig struct {
		ConfigPath string
		DBPath     string
		LogPath    string
	}

	// Option is a function that modifies Config
	Option func(*Config) error

	// Backend names a sync backend
	Backend string
)

const Version = "v0.3.0"

const (
	BackendOff      Backend = "off"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendNATS     Backend = "nats"
)

// Backends lists the accepted sync backends.
var Backends = []Backend{BackendOff, BackendPostgres, BackendSQLite, BackendNATS}

// ModeConfig returns the configured timer mode.
func (t TimerConfig) ModeConfig() (mode.Config, error) {
	return t.Mode.Decode()
}

// WithPaths returns an Option that records the resolved file locations.
func WithPaths(configPath, dbPath, logPath, tokenPath string) Option {
	return func(c *Config) error {
		c.System = SystemConfig{
			ConfigPath: configPath,
			DBPath:     dbPath,
			LogPath:    logPath,
		}

		if c.Sync.TokenFile == "" {
			c.Sync.TokenFile = tokenPath
		}

		return nil
	}
}

// New creates a new Config, applies opts in order and validates the result.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}
