package timer

import (
	"slices"
	"time"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// Status is the state of the timer state machine.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Snapshot is the state of one in-progress or completed timed activity.
type Snapshot struct {
	// LastTick is the time of the last re-evaluation while running. It is
	// zero whenever Status is not StatusRunning.
	LastTick time.Time
	// BreakStart is set while an exam is paused between two sections.
	BreakStart time.Time
	Mode       mode.Config
	Status     Status
	Phase      mode.Phase
	// CycleDate is the calendar day CycleIndex and BreakAccumulated
	// belong to.
	CycleDate string
	// SectionBreaks holds one entry, in seconds, per inter-section break
	// taken.
	SectionBreaks []int
	// Elapsed is the active time of the current phase or section.
	Elapsed time.Duration
	// Planned is the target of the current phase or section. It is only
	// meaningful when Timed is true.
	Planned          time.Duration
	Remaining        time.Duration
	BreakAccumulated time.Duration
	// PriorSections is the active time of the exam sections already
	// completed.
	PriorSections time.Duration
	Pauses        int
	CycleIndex    int
	SectionIndex  int
	Timed         bool
	// Completed is true when a timed session ran down to zero on its own,
	// as opposed to being finished early.
	Completed bool
}

// TotalElapsed returns the active time of the whole session. For exams this
// includes every completed section.
func (s Snapshot) TotalElapsed() time.Duration {
	if s.Mode != nil && s.Mode.Kind() == mode.KindExam {
		return s.PriorSections + s.Elapsed
	}

	return s.Elapsed
}

// CompletedFully reports whether the session reached its planned end.
func (s Snapshot) CompletedFully() bool {
	return s.Status == StatusFinished && s.Completed
}

// InExamBreak reports whether an exam is waiting between two sections.
func (s Snapshot) InExamBreak() bool {
	return !s.BreakStart.IsZero()
}

// TotalPlanned returns the planned length of the whole session, and false
// for untimed modes.
func (s Snapshot) TotalPlanned() (time.Duration, bool) {
	switch c := s.Mode.(type) {
	case mode.Countdown:
		return c.Duration, true
	case mode.WorkBreak:
		return c.Work, true
	case mode.Exam:
		var total time.Duration

		for _, sec := range c.Sections {
			total += sec.Duration
		}

		return total, true
	}

	return 0, false
}

func (s Snapshot) clone() Snapshot {
	s.SectionBreaks = slices.Clone(s.SectionBreaks)

	return s
}

func remainingOf(planned, elapsed time.Duration, timed bool) time.Duration {
	if !timed {
		return 0
	}

	return max(0, planned-elapsed)
}
