package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Mode       string
	Countdown  string
	Work       string
	Break      string
	SessionCmd string
	Sections   []string
}

// WithCLIConfig returns an Option that loads configuration from CLI flags.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Mode:       ctx.String("mode"),
			Countdown:  ctx.String("countdown"),
			Work:       ctx.String("work"),
			Break:      ctx.String("break"),
			Sections:   ctx.StringSlice("section"),
			SessionCmd: ctx.String("session-cmd"),
		}

		return applyCLIOptions(c, opts)
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions) error {
	if opts.Mode != "" {
		kind, err := mode.ParseKind(opts.Mode)
		if err != nil {
			return err
		}

		c.Timer.Mode.Kind = kind
	}

	if err := applyCLIDurations(c, opts); err != nil {
		return fmt.Errorf("applying CLI durations: %w", err)
	}

	if len(opts.Sections) > 0 {
		sections, err := parseSections(opts.Sections)
		if err != nil {
			return err
		}

		c.Timer.Mode.Sections = sections
	}

	if opts.SessionCmd != "" {
		c.Timer.SessionCmd = opts.SessionCmd
	}

	return nil
}

// applyCLIDurations handles parsing and applying duration settings from CLI.
func applyCLIDurations(c *Config, opts CLIOptions) error {
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"countdown", opts.Countdown, &c.Timer.Mode.Countdown},
		{"work", opts.Work, &c.Timer.Mode.Work},
		{"break", opts.Break, &c.Timer.Mode.Break},
	}

	for _, d := range durations {
		if d.value == "" {
			continue
		}

		dur, err := parseDuration(d.value)
		if err != nil {
			return errInvalidCLIDuration.Fmt(d.name, err)
		}

		*d.dst = dur
	}

	return nil
}

// parseSections parses exam sections given as name=duration.
func parseSections(values []string) ([]mode.Section, error) {
	sections := make([]mode.Section, 0, len(values))

	for _, v := range values {
		name, dur, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, errInvalidSection.Fmt(v)
		}

		d, err := parseDuration(dur)
		if err != nil {
			return nil, errInvalidSection.Wrap(err).Fmt(v)
		}

		sections = append(sections, mode.Section{
			Name:     strings.TrimSpace(name),
			Duration: d,
		})
	}

	return sections, nil
}
