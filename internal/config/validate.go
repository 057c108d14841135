package config

import (
	"slices"
	"strings"
	"time"

	"github.com/ayoisaiah/studytime/internal/mode"
)

var (
	minTickInterval = 50 * time.Millisecond
	maxTickInterval = 5 * time.Second
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateTimer(); err != nil {
		return err
	}

	return c.validateSync()
}

// validateTimer checks the selected mode only, so an unused mode with odd
// durations in the config file does not block the others.
func (c *Config) validateTimer() error {
	cfg, err := c.Timer.ModeConfig()
	if err != nil {
		return err
	}

	if err := mode.Validate(cfg); err != nil {
		return err
	}

	if c.Timer.TickInterval < minTickInterval ||
		c.Timer.TickInterval > maxTickInterval {
		return errInvalidTick.Fmt(
			c.Timer.TickInterval,
			minTickInterval,
			maxTickInterval,
		)
	}

	return nil
}

func (c *Config) validateSync() error {
	s := &c.Sync

	if s.Backend == "" {
		s.Backend = BackendOff
	}

	if !slices.Contains(Backends, s.Backend) {
		return errUnknownBackend.Fmt(s.Backend)
	}

	switch s.Backend {
	case BackendOff:
		return nil
	case BackendPostgres, BackendSQLite:
		if strings.TrimSpace(s.DSN) == "" {
			return errMissingSetting.Fmt(s.Backend, "sync.dsn")
		}
	case BackendNATS:
		if strings.TrimSpace(s.NATSURL) == "" {
			return errMissingSetting.Fmt(s.Backend, "sync.nats_url")
		}
	}

	delays := []struct {
		name  string
		value time.Duration
	}{
		{"sync.interval", s.Interval},
		{"sync.probe_interval", s.ProbeInterval},
		{"sync.base_delay", s.BaseDelay},
		{"sync.max_delay", s.MaxDelay},
	}

	for _, d := range delays {
		if d.value <= 0 {
			return errInvalidDelay.Fmt(d.name)
		}
	}

	if s.MaxJitter < 0 {
		return errInvalidDelay.Fmt("sync.max_jitter")
	}

	if s.BaseDelay > s.MaxDelay {
		return errDelayOrder.Fmt(s.BaseDelay, s.MaxDelay)
	}

	return nil
}
