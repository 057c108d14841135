package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/config"
	"github.com/ayoisaiah/studytime/internal/mode"
)

// defaultConfig returns a new Config instance with default values.
func defaultConfig() *config.Config {
	return &config.Config{
		Timer: config.TimerConfig{
			Mode: mode.Spec{
				Kind:      mode.KindWorkBreak,
				Countdown: 45 * time.Minute,
				Work:      25 * time.Minute,
				Break:     5 * time.Minute,
				Sections: []mode.Section{
					{Name: "Section 1", Duration: time.Hour},
				},
			},
			TickInterval: 250 * time.Millisecond,
		},
		Sync: config.SyncConfig{
			Backend:       config.BackendOff,
			SubjectPrefix: "studytime",
			Interval:      time.Minute,
			ProbeInterval: 15 * time.Second,
			BaseDelay:     2 * time.Second,
			MaxDelay:      10 * time.Minute,
			MaxJitter:     time.Second,
		},
		Logging: config.LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

const modifiedConfig = `timer:
  mode: exam
  tick_interval: 1s
  session_cmd: notify-send done
  exam_sections:
    - name: Reading
      duration: 60m
    - name: Listening
      duration: "30"
sync:
  backend: sqlite
  dsn: /tmp/remote.db
  base_delay: 5s
logging:
  level: debug
`

func TestViperWriteConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := config.New(
		config.WithViperConfig(configPath),
	)
	require.NoError(t, err)

	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Fatalf("default config mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "work_break_cycle")

	// A second load reads the file that was just written.
	again, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestViperReadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	require.NoError(t, os.WriteFile(configPath, []byte(modifiedConfig), 0o600))

	want := defaultConfig()
	want.Timer.Mode.Kind = mode.KindExam
	want.Timer.Mode.Sections = []mode.Section{
		{Name: "Reading", Duration: time.Hour},
		{Name: "Listening", Duration: 30 * time.Minute},
	}
	want.Timer.TickInterval = time.Second
	want.Timer.SessionCmd = "notify-send done"
	want.Sync.Backend = config.BackendSQLite
	want.Sync.DSN = "/tmp/remote.db"
	want.Sync.BaseDelay = 5 * time.Second
	want.Logging.Level = "debug"

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	m, err := cfg.Timer.ModeConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, mode.SectionCount(m))
}

func TestEarlierOptionsSeedTheWrittenFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	answers := func(c *config.Config) error {
		c.Timer.Mode.Kind = mode.KindCountdown
		c.Timer.Mode.Countdown = time.Hour

		return nil
	}

	_, err := config.New(answers, config.WithViperConfig(configPath))
	require.NoError(t, err)

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	assert.Equal(t, mode.KindCountdown, cfg.Timer.Mode.Kind)
	assert.Equal(t, time.Hour, cfg.Timer.Mode.Countdown)
}

func TestWithPaths(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := config.New(
		config.WithViperConfig(configPath),
		config.WithPaths(configPath, "db", "log", "token"),
	)
	require.NoError(t, err)

	assert.Equal(t, config.SystemConfig{
		ConfigPath: configPath,
		DBPath:     "db",
		LogPath:    "log",
	}, cfg.System)
	assert.Equal(t, "token", cfg.Sync.TokenFile)
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"unknown backend", func(c *config.Config) {
			c.Sync.Backend = "redis"
		}},
		{"postgres without dsn", func(c *config.Config) {
			c.Sync.Backend = config.BackendPostgres
		}},
		{"nats without url", func(c *config.Config) {
			c.Sync.Backend = config.BackendNATS
		}},
		{"base delay above max delay", func(c *config.Config) {
			c.Sync.Backend = config.BackendNATS
			c.Sync.NATSURL = "nats://localhost:4222"
			c.Sync.BaseDelay = time.Hour
		}},
		{"tick too small", func(c *config.Config) {
			c.Timer.TickInterval = time.Millisecond
		}},
		{"work too long", func(c *config.Config) {
			c.Timer.Mode.Work = 13 * time.Hour
		}},
		{"exam without sections", func(c *config.Config) {
			c.Timer.Mode.Kind = mode.KindExam
			c.Timer.Mode.Sections = nil
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaultConfig().Validate())
}

// runCLI runs a throwaway app with the start flags and returns the config
// built from them.
func runCLI(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yml")

	var (
		cfg    *config.Config
		cfgErr error
	)

	app := &cli.App{
		Name: "studytime",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode"},
			&cli.StringFlag{Name: "countdown"},
			&cli.StringFlag{Name: "work"},
			&cli.StringFlag{Name: "break"},
			&cli.StringSliceFlag{Name: "section"},
			&cli.StringFlag{Name: "session-cmd"},
		},
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = config.New(
				config.WithViperConfig(configPath),
				config.WithCLIConfig(ctx),
			)

			return nil
		},
	}

	require.NoError(t, app.Run(append([]string{"studytime"}, args...)))

	return cfg, cfgErr
}

func TestCLIOverrides(t *testing.T) {
	cfg, err := runCLI(t,
		"--mode", "exam",
		"--section", "Reading=40m",
		"--section", "Writing=20",
		"--session-cmd", "echo done",
	)
	require.NoError(t, err)

	want := []mode.Section{
		{Name: "Reading", Duration: 40 * time.Minute},
		{Name: "Writing", Duration: 20 * time.Minute},
	}

	assert.Equal(t, mode.KindExam, cfg.Timer.Mode.Kind)
	assert.Equal(t, want, cfg.Timer.Mode.Sections)
	assert.Equal(t, "echo done", cfg.Timer.SessionCmd)

	cfg, err = runCLI(t, "--work", "50m", "--break", "10m")
	require.NoError(t, err)

	assert.Equal(t, 50*time.Minute, cfg.Timer.Mode.Work)
	assert.Equal(t, 10*time.Minute, cfg.Timer.Mode.Break)
}

func TestCLIRejectsBadValues(t *testing.T) {
	bad := [][]string{
		{"--mode", "pomodoro"},
		{"--countdown", "soon"},
		{"--mode", "exam", "--section", "Reading"},
		{"--mode", "exam", "--section", "=10m"},
		{"--work", "0s"},
	}

	for _, args := range bad {
		_, err := runCLI(t, args...)
		assert.Error(t, err, args)
	}
}

func runFilter(t *testing.T, now time.Time, args ...string) (config.FilterConfig, error) {
	t.Helper()

	var (
		f    config.FilterConfig
		fErr error
	)

	app := &cli.App{
		Name: "sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "since"},
			&cli.StringFlag{Name: "until"},
			&cli.StringFlag{Name: "mode"},
			&cli.BoolFlag{Name: "json"},
		},
		Action: func(ctx *cli.Context) error {
			f, fErr = config.Filter(ctx, now)
			return nil
		},
	}

	require.NoError(t, app.Run(append([]string{"sessions"}, args...)))

	return f, fErr
}

func TestFilter(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.Local)

	f, err := runFilter(t, now)
	require.NoError(t, err)
	assert.Equal(t, config.FilterConfig{}, f)

	f, err = runFilter(t, now, "--since", "7days", "--mode", "exam", "--json")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.Local), f.Since)
	assert.Equal(t, 14, f.Until.Day())
	assert.Equal(t, mode.KindExam, f.Mode)
	assert.True(t, f.JSON)

	f, err = runFilter(t, now, "--since", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Since.Day())
	assert.Equal(t, time.March, f.Since.Month())
	assert.True(t, f.Until.IsZero())

	_, err = runFilter(t, now, "--since", "2024-03-10", "--until", "2024-03-01")
	assert.Error(t, err)

	_, err = runFilter(t, now, "--mode", "nap")
	assert.Error(t, err)
}
