package timer

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/score"
)

const (
	padding  = 2
	maxWidth = 80
)

type stage int

const (
	stageTimer stage = iota
	stageForm
	stageSaving
	stageDone
)

// callbackMsg carries a scheduled engine callback onto the program loop.
type callbackMsg func()

// savedMsg reports the outcome of recording a finished session.
type savedMsg struct {
	err       error
	sess      *models.Session
	breakdown score.Breakdown
}

// Callback wraps fn so that it runs inside Update. It is meant to be used as
// the post function of a clock.Serial scheduler:
//
//	clock.NewSerial(func(fn func()) { p.Send(timer.Callback(fn)) })
func Callback(fn func()) tea.Msg {
	return callbackMsg(fn)
}

// Model is the bubbletea model driving a Timer.
type Model struct {
	ctx      context.Context
	timer    *Timer
	recorder Recorder
	log      *slog.Logger
	form     *huh.Form
	answers  *saveAnswers
	saved    *models.Session
	err      error
	help     help.Model
	progress progress.Model
	modes    []mode.Config
	snap     Snapshot
	keys     keymap
	styles   styles
	score    score.Breakdown
	stage    stage
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithModes sets the mode configurations the user can switch between.
func WithModes(modes ...mode.Config) ModelOption {
	return func(m *Model) { m.modes = modes }
}

// WithModelLogger sets the logger used for debug dumps of UI messages.
func WithModelLogger(l *slog.Logger) ModelOption {
	return func(m *Model) { m.log = l }
}

// NewModel returns a Model for t. Finished sessions are handed to rec.
func NewModel(ctx context.Context, t *Timer, rec Recorder, opts ...ModelOption) *Model {
	m := &Model{
		ctx:      ctx,
		timer:    t,
		recorder: rec,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		keys:     defaultKeymap,
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient()),
		styles:   defaultStyles(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.snap = t.Snapshot()

	return m
}

// Init starts the session. A work/break cycle restored from earlier today
// is left paused for the user to resume.
func (m *Model) Init() tea.Cmd {
	if m.timer.Snapshot().Status == StatusIdle {
		m.timer.Start()
	}

	m.snap = m.timer.Snapshot()

	return tea.SetWindowTitle("studytime")
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if _, ok := msg.(callbackMsg); !ok && m.log.Enabled(m.ctx, slog.LevelDebug) {
		m.log.Debug("ui message", "msg", spew.Sdump(msg))
	}

	switch msg := msg.(type) {
	case callbackMsg:
		msg()

	case tea.FocusMsg, tea.ResumeMsg:
		m.timer.SyncOnVisibilityChange()

	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-padding*2-4, maxWidth)

	case savedMsg:
		m.stage = stageDone
		m.err = msg.err
		m.saved = msg.sess
		m.score = msg.breakdown

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}

		if m.stage != stageForm {
			return m, m.refresh(m.handleKeyPress(msg))
		}
	}

	if m.stage == stageForm {
		cmd = m.updateForm(msg)
	}

	return m, m.refresh(cmd)
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()

	case m.stage == stageSaving:
		return nil

	case m.stage == stageDone:
		if key.Matches(msg, m.keys.enter) {
			m.stage = stageTimer
			m.saved = nil
			m.err = nil
			m.timer.Start()
		}

		return nil

	case key.Matches(msg, m.keys.togglePlay):
		switch {
		case m.snap.InExamBreak():
			m.timer.AdvanceFromExamBreak()
		case m.snap.Status == StatusRunning:
			m.timer.Pause()
		case m.snap.Status == StatusPaused:
			m.timer.Resume()
		case m.snap.Status == StatusIdle:
			m.timer.Start()
		}

	case key.Matches(msg, m.keys.enter):
		if m.snap.Status == StatusIdle {
			m.timer.Start()
		}

	case key.Matches(msg, m.keys.next):
		m.timer.AdvanceFromExamBreak()

	case key.Matches(msg, m.keys.finish):
		m.timer.FinishEarly()

	case key.Matches(msg, m.keys.reset):
		m.timer.Reset()

	case key.Matches(msg, m.keys.switchMode):
		if next := m.nextMode(); next != nil {
			m.timer.SetModeConfig(next)
		}
	}

	return nil
}

// nextMode returns the configured mode following the current one.
func (m *Model) nextMode() mode.Config {
	if len(m.modes) < 2 || m.snap.Mode == nil {
		return nil
	}

	for i, c := range m.modes {
		if c.Kind() == m.snap.Mode.Kind() {
			return m.modes[(i+1)%len(m.modes)]
		}
	}

	return m.modes[0]
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil

		if !m.answers.save {
			m.stage = stageDone
			return cmd
		}

		m.stage = stageSaving

		return tea.Batch(cmd, m.record(m.snap, m.answers))

	case huh.StateAborted:
		m.form = nil
		m.stage = stageDone
	}

	return cmd
}

// record runs the recorder off the program loop.
func (m *Model) record(s Snapshot, a *saveAnswers) tea.Cmd {
	return func() tea.Msg {
		d, err := a.details()
		if err != nil {
			return savedMsg{err: err}
		}

		sess, b, err := m.recorder.Record(m.ctx, s, d)

		return savedMsg{sess: sess, breakdown: b, err: err}
	}
}

// refresh reads the engine state and opens the save form once a session
// has finished.
func (m *Model) refresh(cmd tea.Cmd) tea.Cmd {
	m.snap = m.timer.Snapshot()

	if m.stage != stageTimer || m.snap.Status != StatusFinished {
		return cmd
	}

	m.stage = stageForm
	m.answers = &saveAnswers{}
	m.form = newSaveForm(m.answers, m.snap.Mode.Kind())

	return tea.Batch(cmd, m.form.Init())
}

// quit stops the engine, saving a running work/break cycle for later today.
func (m *Model) quit() tea.Cmd {
	m.timer.Close()

	return tea.Batch(tea.ClearScreen, tea.Quit)
}
