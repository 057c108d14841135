package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/config"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/osutil"
	"github.com/ayoisaiah/studytime/internal/pathutil"
	"github.com/ayoisaiah/studytime/internal/ui"
	"github.com/ayoisaiah/studytime/syncq"
	"github.com/ayoisaiah/studytime/timer"
)

const (
	envNoColor          = "NO_COLOR"
	envStudytimeNoColor = "STUDYTIME_NO_COLOR"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// selectableModes returns one configuration per mode, built from the
// durations in cfg. Modes whose durations do not validate are left out.
func selectableModes(spec mode.Spec) []mode.Config {
	var modes []mode.Config

	for _, k := range mode.Kinds {
		s := spec
		s.Kind = k

		c, err := s.Decode()
		if err != nil || mode.Validate(c) != nil {
			continue
		}

		modes = append(modes, c)
	}

	return modes
}

// defaultAction runs the timer UI. Finished sessions are saved to the
// history, and the sync queue is drained in the background while the UI is
// open.
func defaultAction(ctx *cli.Context) error {
	paths, err := pathutil.Resolve()
	if err != nil {
		return err
	}

	cfg, err := config.New(
		config.WithPromptConfig(paths.ConfigFile),
		config.WithViperConfig(paths.ConfigFile),
		config.WithPaths(paths.ConfigFile, paths.DBFile, paths.LogFile, paths.TokenFile),
		config.WithCLIConfig(ctx),
	)
	if err != nil {
		return err
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	defer e.Close()

	modeCfg, err := cfg.Timer.ModeConfig()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	var p *tea.Program

	t := timer.New(modeCfg,
		timer.WithScheduler(clock.NewSerial(func(fn func()) {
			p.Send(timer.Callback(fn))
		})),
		timer.WithRecoveryStore(e.db),
		timer.WithTickInterval(cfg.Timer.TickInterval),
		timer.WithLogger(e.log.With("component", "timer")),
	)

	rec := &recorder{
		history:    e.history,
		clock:      e.clock,
		log:        e.log.With("component", "recorder"),
		sessionCmd: cfg.Timer.SessionCmd,
	}

	if e.hasBackend {
		r := e.runner(nil)
		rec.afterSave = r.Kick

		go func() {
			if err := r.Run(runCtx); err != nil {
				e.log.Warn("sync runner stopped", "error", err)
			}
		}()
	}

	m := timer.NewModel(runCtx, t, rec,
		timer.WithModes(selectableModes(cfg.Timer.Mode)...),
		timer.WithModelLogger(e.log.With("component", "ui")),
	)

	p = tea.NewProgram(m, tea.WithReportFocus(), tea.WithContext(runCtx))

	_, err = p.Run()

	// Program errors after a quit, such as a cancelled context, are not
	// worth reporting. Stop the engine in case the loop ended without q.
	t.Close()

	if err != nil && runCtx.Err() == nil {
		return err
	}

	return nil
}

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == osutil.Windows {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd := exec.Command(editor, cfg.System.ConfigPath)

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

// loginAction stores the access token used to attribute synced sessions.
func loginAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	defer e.Close()

	token := strings.TrimSpace(ctx.String("token"))

	if token == "" {
		err = huh.NewInput().
			Title("Access token").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		if err != nil {
			return err
		}
	}

	user, err := e.auth.Save(strings.TrimSpace(token))
	if err != nil {
		return err
	}

	e.log.InfoContext(ctx.Context, "signed in", slog.String("user", user))
	pterm.Success.Printfln("Signed in as %s", ui.Highlight(user))

	return nil
}

// logoutAction removes the stored token. Queued mutations are kept and are
// delivered after the next login.
func logoutAction(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	defer e.Close()

	if err := e.auth.Remove(); err != nil {
		return err
	}

	pterm.Info.Println("Signed out")

	return nil
}

// beforeAction sets up the help template and colour handling.
func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if STUDYTIME_NO_COLOR is set
	if _, exists := os.LookupEnv(envStudytimeNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

// syncErrorHint turns the queue's precondition errors into advice.
func syncErrorHint(err error) error {
	switch {
	case syncq.IsNoBackend(err):
		return fmt.Errorf("%w: set sync.backend in the config file ('studytime edit-config')", err)
	case syncq.IsNotAuthenticated(err):
		return fmt.Errorf("%w: run 'studytime login' first", err)
	}

	return err
}
