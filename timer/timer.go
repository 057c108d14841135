// Package timer runs the study session state machine and the terminal UI that
// drives it.
package timer

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/timeutil"
)

// DefaultTickInterval is how often a running timer re-evaluates itself.
const DefaultTickInterval = 250 * time.Millisecond

// Timer owns a Snapshot and moves it through the idle, running, paused and
// finished states. Operations whose preconditions do not hold are ignored.
//
// Elapsed time is always derived from wall-clock deltas, so a single
// re-evaluation after the scheduled callbacks were suspended produces the
// same state as uninterrupted ticking.
type Timer struct {
	clock    clock.Clock
	sched    clock.Scheduler
	kv       KV
	log      *slog.Logger
	onChange func(Snapshot)
	cancel   clock.Cancel
	snap     Snapshot
	interval time.Duration
	// gen identifies the live callback chain. A callback whose generation
	// no longer matches was superseded and does nothing.
	gen uint64
	mu  sync.Mutex
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(t *Timer) { t.clock = c }
}

// WithScheduler sets the scheduler used for the re-evaluation loop.
func WithScheduler(s clock.Scheduler) Option {
	return func(t *Timer) { t.sched = s }
}

// WithRecoveryStore sets the durable storage for the work/break recovery
// record.
func WithRecoveryStore(kv KV) Option {
	return func(t *Timer) { t.kv = kv }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Timer) { t.log = l }
}

// WithTickInterval sets the delay between two re-evaluations.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithOnChange registers fn to receive a copy of the snapshot after every
// operation and every re-evaluation. fn is called without any lock held.
func WithOnChange(fn func(Snapshot)) Option {
	return func(t *Timer) { t.onChange = fn }
}

// New returns an idle timer for cfg. Entering work/break mode restores a
// recovery record saved earlier the same day.
func New(cfg mode.Config, opts ...Option) *Timer {
	t := &Timer{
		clock:    clock.Real{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval: DefaultTickInterval,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.sched == nil {
		t.sched = clock.NewSerial(nil)
	}

	if cfg == nil {
		cfg = mode.Free{}
	}

	t.enter(cfg)

	return t
}

// Snapshot returns a copy of the current state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snap.clone()
}

// Start begins a new session with the current mode configuration.
func (t *Timer) Start() {
	t.StartWith(nil)
}

// StartWith begins a new session, switching to cfg first when it is not nil.
// A work/break cycle continues today's cycle count if one exists. Switching
// into a work/break cycle consumes today's recovery record, keeping only its
// cycle count.
func (t *Timer) StartWith(cfg mode.Config) {
	t.do(func() {
		t.stop()

		s := &t.snap
		now := t.clock.Now()

		if cfg != nil {
			prev := s.Mode

			t.abandon(cfg.Kind())
			s.Mode = cfg

			if cfg.Kind() == mode.KindWorkBreak &&
				(prev == nil || prev.Kind() != mode.KindWorkBreak) {
				t.restore(timeutil.DayKey(now))
			}
		}

		t.clearSession()

		if s.Mode.Kind() == mode.KindWorkBreak {
			t.ensureCycleDay(timeutil.DayKey(now))
		}

		s.Status = StatusRunning
		s.LastTick = now

		t.plan()
		t.schedule()
	})
}

// Pause freezes elapsed time. It does nothing unless the timer is running.
func (t *Timer) Pause() {
	t.do(func() {
		s := &t.snap

		if s.Status != StatusRunning || s.LastTick.IsZero() {
			return
		}

		t.stop()

		s.Elapsed += t.since(s.LastTick)
		s.Remaining = remainingOf(s.Planned, s.Elapsed, s.Timed)
		s.Status = StatusPaused
		s.LastTick = time.Time{}
		s.Pauses++
	})
}

// Resume continues a paused session. An exam waiting between sections is
// continued with AdvanceFromExamBreak instead.
func (t *Timer) Resume() {
	t.do(func() {
		s := &t.snap

		if s.Status != StatusPaused || s.InExamBreak() {
			return
		}

		s.Status = StatusRunning
		s.LastTick = t.clock.Now()

		t.schedule()
	})
}

// Reset returns to idle with the current mode configuration. Unlike Start,
// it always begins a fresh work/break cycle count for the day.
func (t *Timer) Reset() {
	t.do(func() {
		t.stop()

		s := &t.snap

		t.clearSession()

		if s.Mode.Kind() == mode.KindWorkBreak {
			s.CycleIndex = 0
			s.BreakAccumulated = 0
			s.CycleDate = t.today()
		}

		t.plan()
	})
}

// SetModeConfig switches to cfg and leaves the timer idle. Leaving an active
// work/break cycle saves a recovery record for the day; entering one
// restores it.
func (t *Timer) SetModeConfig(cfg mode.Config) {
	if cfg == nil {
		return
	}

	t.do(func() {
		t.stop()
		t.abandon(cfg.Kind())
		t.enter(cfg)
	})
}

// AdvanceFromExamBreak ends the break between two exam sections and starts
// the next section.
func (t *Timer) AdvanceFromExamBreak() {
	t.do(func() {
		s := &t.snap

		if s.Mode.Kind() != mode.KindExam || !s.InExamBreak() {
			return
		}

		if s.SectionIndex+1 >= mode.SectionCount(s.Mode) {
			return
		}

		now := t.clock.Now()

		s.SectionBreaks = append(
			s.SectionBreaks,
			timeutil.Seconds(max(0, now.Sub(s.BreakStart))),
		)
		s.PriorSections += s.Elapsed
		s.SectionIndex++
		s.BreakStart = time.Time{}
		s.Elapsed = 0
		s.Status = StatusRunning
		s.LastTick = now

		t.plan()
		t.schedule()
	})
}

// FinishEarly ends a running or paused session. When a work/break cycle is
// in its break phase, break time is left out of the final tally.
func (t *Timer) FinishEarly() {
	t.do(func() {
		s := &t.snap

		if s.Status != StatusRunning && s.Status != StatusPaused {
			return
		}

		t.stop()

		if s.Status == StatusRunning && !s.LastTick.IsZero() {
			s.Elapsed += t.since(s.LastTick)
		}

		if s.Mode.Kind() == mode.KindWorkBreak && s.Phase == mode.PhaseBreak {
			s.Elapsed = time.Duration(s.CycleIndex) * mode.WorkDuration(s.Mode)
		}

		s.Status = StatusFinished
		s.Remaining = 0
		s.LastTick = time.Time{}
		s.BreakStart = time.Time{}
	})
}

// SyncOnVisibilityChange re-evaluates immediately. It repairs the state
// after the host stopped delivering scheduled callbacks for a while.
func (t *Timer) SyncOnVisibilityChange() {
	t.Reevaluate()
}

// Reevaluate folds the time since the last tick into the snapshot and
// applies any phase, section or completion transition that became due.
func (t *Timer) Reevaluate() {
	t.do(t.reevaluate)
}

// Close saves the recovery record if a work/break cycle is still active
// today, and stops the re-evaluation loop.
func (t *Timer) Close() {
	t.do(func() {
		t.stop()
		t.abandon(mode.KindFree)
	})
}

func (t *Timer) reevaluate() {
	s := &t.snap

	if s.Status != StatusRunning || s.LastTick.IsZero() {
		return
	}

	now := t.clock.Now()
	elapsed := s.Elapsed + t.since(s.LastTick)
	remaining := remainingOf(s.Planned, elapsed, s.Timed)
	finished := s.Timed && remaining == 0

	switch {
	case finished && s.Mode.Kind() == mode.KindExam &&
		s.SectionIndex+1 < mode.SectionCount(s.Mode):
		t.stop()

		s.Elapsed = s.Planned
		s.Remaining = 0
		s.Status = StatusPaused
		s.BreakStart = now
		s.LastTick = time.Time{}

	case finished && s.Mode.Kind() == mode.KindWorkBreak:
		if s.Phase == mode.PhaseWork {
			s.CycleIndex++
			s.Phase = mode.PhaseBreak
			s.Elapsed = 0
			s.LastTick = now

			t.plan()
			t.schedule()

			return
		}

		t.stop()

		// Break overrun past the planned end is not counted.
		s.BreakAccumulated += min(elapsed, s.Planned)
		s.Elapsed = time.Duration(s.CycleIndex)*mode.WorkDuration(s.Mode) +
			s.BreakAccumulated
		s.Remaining = 0
		s.Status = StatusFinished
		s.Completed = true
		s.LastTick = time.Time{}

	case finished:
		t.stop()

		s.Elapsed = min(elapsed, s.Planned)
		s.Remaining = 0
		s.Status = StatusFinished
		s.Completed = true
		s.LastTick = time.Time{}

	default:
		s.Elapsed = elapsed
		s.Remaining = remaining
		s.LastTick = now

		t.schedule()
	}
}

// enter switches the snapshot to cfg in the idle state.
func (t *Timer) enter(cfg mode.Config) {
	s := &t.snap

	s.Mode = cfg

	t.clearSession()

	if cfg.Kind() == mode.KindWorkBreak {
		today := t.today()

		if t.restore(today) {
			return
		}

		t.ensureCycleDay(today)
	}

	t.plan()
}

// abandon saves the recovery record when the active work/break cycle is
// about to be replaced by a mode of kind next.
func (t *Timer) abandon(next mode.Kind) {
	s := t.snap

	if s.Mode == nil || s.Mode.Kind() != mode.KindWorkBreak || next == mode.KindWorkBreak {
		return
	}

	if s.Status != StatusRunning && s.Status != StatusPaused {
		return
	}

	if s.CycleDate != t.today() {
		return
	}

	if s.Status == StatusRunning && !s.LastTick.IsZero() {
		s.Elapsed += t.since(s.LastTick)
		s.Remaining = remainingOf(s.Planned, s.Elapsed, s.Timed)
	}

	t.saveRecovery(s)
}

// clearSession resets the per-session fields, leaving the mode and the
// work/break day counters untouched.
func (t *Timer) clearSession() {
	s := &t.snap

	s.Status = StatusIdle
	s.Phase = mode.PhaseWork
	s.Elapsed = 0
	s.Pauses = 0
	s.LastTick = time.Time{}
	s.SectionIndex = 0
	s.BreakStart = time.Time{}
	s.SectionBreaks = nil
	s.PriorSections = 0
	s.Completed = false
}

func (t *Timer) ensureCycleDay(today string) {
	s := &t.snap

	if s.CycleDate == today {
		return
	}

	s.CycleIndex = 0
	s.BreakAccumulated = 0
	s.CycleDate = today
}

func (t *Timer) plan() {
	s := &t.snap

	s.Planned, s.Timed = mode.PlannedDuration(s.Mode, s.Phase, s.SectionIndex)
	s.Remaining = remainingOf(s.Planned, s.Elapsed, s.Timed)
}

// schedule replaces any pending re-evaluation with a new one.
func (t *Timer) schedule() {
	t.stop()

	gen := t.gen

	t.cancel = t.sched.After(t.interval, func() {
		t.loop(gen)
	})
}

func (t *Timer) loop(gen uint64) {
	t.do(func() {
		if gen != t.gen {
			return
		}

		t.cancel = nil

		t.reevaluate()
	})
}

func (t *Timer) stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	t.gen++
}

func (t *Timer) since(ts time.Time) time.Duration {
	return max(0, t.clock.Now().Sub(ts))
}

func (t *Timer) today() string {
	return timeutil.DayKey(t.clock.Now())
}

func (t *Timer) do(fn func()) {
	t.mu.Lock()
	fn()
	snap := t.snap.clone()
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(snap)
	}
}
