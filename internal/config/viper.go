package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// viperKeys defines the mapping between config keys and their Viper counterparts.
const (
	keyMode              = "timer.mode"
	keyCountdown         = "timer.countdown"
	keyWork              = "timer.work"
	keyBreak             = "timer.break"
	keyExamSections      = "timer.exam_sections"
	keyTickInterval      = "timer.tick_interval"
	keySessionCmd        = "timer.session_cmd"
	keySyncBackend       = "sync.backend"
	keySyncDSN           = "sync.dsn"
	keySyncNATSURL       = "sync.nats_url"
	keySyncSubjectPrefix = "sync.subject_prefix"
	keySyncInterval      = "sync.interval"
	keySyncProbe         = "sync.probe_interval"
	keySyncBaseDelay     = "sync.base_delay"
	keySyncMaxDelay      = "sync.max_delay"
	keySyncMaxJitter     = "sync.max_jitter"
	keySyncTokenFile     = "sync.token_file"
	keyLogLevel          = "logging.level"
	keyLogMaxSize        = "logging.max_size_mb"
	keyLogMaxBackups     = "logging.max_backups"
	keyLogMaxAge         = "logging.max_age_days"
)

type sectionValue struct {
	Name     string `mapstructure:"name"`
	Duration string `mapstructure:"duration"`
}

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath, writing the defaults there first if it does not exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		seedFromConfig(v, c)

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper sets the defaults.
func setupViper(v *viper.Viper) {
	v.SetDefault(keyMode, string(mode.KindWorkBreak))
	v.SetDefault(keyCountdown, "45m")
	v.SetDefault(keyWork, "25m")
	v.SetDefault(keyBreak, "5m")
	v.SetDefault(keyExamSections, []map[string]string{
		{"name": "Section 1", "duration": "60m"},
	})
	v.SetDefault(keyTickInterval, "250ms")
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keySyncBackend, string(BackendOff))
	v.SetDefault(keySyncDSN, "")
	v.SetDefault(keySyncNATSURL, "")
	v.SetDefault(keySyncSubjectPrefix, "studytime")
	v.SetDefault(keySyncInterval, "1m")
	v.SetDefault(keySyncProbe, "15s")
	v.SetDefault(keySyncBaseDelay, "2s")
	v.SetDefault(keySyncMaxDelay, "10m")
	v.SetDefault(keySyncMaxJitter, "1s")
	v.SetDefault(keySyncTokenFile, "")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAge, 28)
}

// seedFromConfig carries values set by earlier options, such as the first
// run prompt, into the config file that is about to be written.
func seedFromConfig(v *viper.Viper, c *Config) {
	if c.Timer.Mode.Kind != "" {
		v.Set(keyMode, string(c.Timer.Mode.Kind))
	}

	durations := map[string]time.Duration{
		keyCountdown: c.Timer.Mode.Countdown,
		keyWork:      c.Timer.Mode.Work,
		keyBreak:     c.Timer.Mode.Break,
	}

	for key, d := range durations {
		if d > 0 {
			v.Set(key, d.String())
		}
	}
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	durations := map[string]*time.Duration{
		keyCountdown:     &c.Timer.Mode.Countdown,
		keyWork:          &c.Timer.Mode.Work,
		keyBreak:         &c.Timer.Mode.Break,
		keyTickInterval:  &c.Timer.TickInterval,
		keySyncInterval:  &c.Sync.Interval,
		keySyncProbe:     &c.Sync.ProbeInterval,
		keySyncBaseDelay: &c.Sync.BaseDelay,
		keySyncMaxDelay:  &c.Sync.MaxDelay,
		keySyncMaxJitter: &c.Sync.MaxJitter,
	}

	for key, dst := range durations {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		*dst = d
	}

	kind, err := mode.ParseKind(v.GetString(keyMode))
	if err != nil {
		return err
	}

	c.Timer.Mode.Kind = kind

	var sections []sectionValue

	if err := v.UnmarshalKey(keyExamSections, &sections); err != nil {
		return fmt.Errorf("%s: %w", keyExamSections, err)
	}

	c.Timer.Mode.Sections = nil

	for _, s := range sections {
		d, err := parseDuration(s.Duration)
		if err != nil {
			return fmt.Errorf("%s %q: %w", keyExamSections, s.Name, err)
		}

		c.Timer.Mode.Sections = append(c.Timer.Mode.Sections, mode.Section{
			Name:     strings.TrimSpace(s.Name),
			Duration: d,
		})
	}

	c.Timer.SessionCmd = v.GetString(keySessionCmd)

	c.Sync.Backend = Backend(strings.TrimSpace(v.GetString(keySyncBackend)))
	c.Sync.DSN = v.GetString(keySyncDSN)
	c.Sync.NATSURL = v.GetString(keySyncNATSURL)
	c.Sync.SubjectPrefix = v.GetString(keySyncSubjectPrefix)
	c.Sync.TokenFile = v.GetString(keySyncTokenFile)

	c.Logging.Level = v.GetString(keyLogLevel)
	c.Logging.MaxSizeMB = v.GetInt(keyLogMaxSize)
	c.Logging.MaxBackups = v.GetInt(keyLogMaxBackups)
	c.Logging.MaxAgeDays = v.GetInt(keyLogMaxAge)

	return nil
}

// parseDuration accepts Go duration strings, or a bare number of minutes.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	mins, err := time.ParseDuration(s + "m")
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	return mins, nil
}
