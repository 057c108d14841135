package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// PromptOptions holds the user's responses to the configuration prompts.
type PromptOptions struct {
	Mode             mode.Kind
	CountdownMinutes int
	WorkMinutes      int
	BreakMinutes     int
}

// WithPromptConfig returns an Option that asks for the default timer mode
// when no config file exists yet. It must run before WithViperConfig so the
// answers end up in the written file.
func WithPromptConfig(configPath string) Option {
	return func(c *Config) error {
		_, err := os.Stat(configPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return err
		}

		opts, err := promptUser()
		if err != nil {
			return fmt.Errorf("user prompt failed: %w", err)
		}

		return applyPromptOptions(c, opts)
	}
}

// promptUser handles the interactive configuration process.
func promptUser() (PromptOptions, error) {
	var opts PromptOptions

	s, _ := pterm.DefaultBigText.WithLetters(putils.LettersFromString("studytime")).Srender()
	pterm.Println(s)

	_ = putils.BulletListFromString(`Answer the prompts below to set up studytime for the first time.
Press ENTER to accept the defaults.
Run 'studytime edit-config' later to change any setting.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[mode.Kind]().
				Title("Default timer mode").
				Options(
					huh.NewOption("Work/break cycle", mode.KindWorkBreak).
						Selected(true),
					huh.NewOption("Countdown", mode.KindCountdown),
					huh.NewOption("Free (count up)", mode.KindFree),
					huh.NewOption("Exam", mode.KindExam),
				).
				Value(&opts.Mode),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Work phase length").
				Options(
					huh.NewOption("25 minutes", 25).Selected(true),
					huh.NewOption("35 minutes", 35),
					huh.NewOption("50 minutes", 50),
					huh.NewOption("90 minutes", 90),
				).
				Value(&opts.WorkMinutes),
			huh.NewSelect[int]().
				Title("Break length").
				Options(
					huh.NewOption("5 minutes", 5).Selected(true),
					huh.NewOption("10 minutes", 10),
					huh.NewOption("15 minutes", 15),
				).
				Value(&opts.BreakMinutes),
		).WithHideFunc(func() bool {
			return opts.Mode != mode.KindWorkBreak
		}),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Countdown length").
				Options(
					huh.NewOption("30 minutes", 30),
					huh.NewOption("45 minutes", 45).Selected(true),
					huh.NewOption("60 minutes", 60),
					huh.NewOption("120 minutes", 120),
				).
				Value(&opts.CountdownMinutes),
		).WithHideFunc(func() bool {
			return opts.Mode != mode.KindCountdown
		}),
	)

	err := form.Run()
	if err != nil {
		return opts, fmt.Errorf("form interaction failed: %w", err)
	}

	return opts, nil
}

// applyPromptOptions applies the user's prompt responses to the
// configuration. Unanswered durations keep their defaults.
func applyPromptOptions(c *Config, opts PromptOptions) error {
	c.Timer.Mode.Kind = opts.Mode

	if opts.WorkMinutes > 0 {
		c.Timer.Mode.Work = time.Duration(opts.WorkMinutes) * time.Minute
	}

	if opts.BreakMinutes > 0 {
		c.Timer.Mode.Break = time.Duration(opts.BreakMinutes) * time.Minute
	}

	if opts.CountdownMinutes > 0 {
		c.Timer.Mode.Countdown = time.Duration(opts.CountdownMinutes) * time.Minute
	}

	return nil
}
