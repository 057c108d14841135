// Package mode describes the timer modes and maps a mode configuration to the
// planned duration of its current phase or section.
package mode

import (
	"time"
)

// Kind is the discriminant of a mode configuration.
type Kind string

const (
	KindFree      Kind = "free"
	KindCountdown Kind = "countdown"
	KindWorkBreak Kind = "work_break_cycle"
	KindExam      Kind = "exam"
)

// Kinds lists every mode in display order.
var Kinds = []Kind{KindFree, KindCountdown, KindWorkBreak, KindExam}

// Phase is the active segment of a work/break cycle.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// Config is a mode configuration. The set of implementations is closed:
// Free, Countdown, WorkBreak and Exam.
type Config interface {
	Kind() Kind
	sealed()
}

type (
	// Free counts up without a target.
	Free struct{}

	// Countdown runs towards a single target duration.
	Countdown struct {
		Duration time.Duration
	}

	// WorkBreak runs one work phase followed by one break phase.
	WorkBreak struct {
		Work  time.Duration
		Break time.Duration
	}

	// Exam runs an ordered list of independently timed sections.
	Exam struct {
		Sections []Section
	}

	// Section is one named part of an exam.
	Section struct {
		Name     string        `json:"name"     mapstructure:"name"`
		Duration time.Duration `json:"duration" mapstructure:"duration"`
	}
)

func (Free) Kind() Kind      { return KindFree }
func (Countdown) Kind() Kind { return KindCountdown }
func (WorkBreak) Kind() Kind { return KindWorkBreak }
func (Exam) Kind() Kind      { return KindExam }

func (Free) sealed()      {}
func (Countdown) sealed() {}
func (WorkBreak) sealed() {}
func (Exam) sealed()      {}

// PlannedDuration returns the target duration for the given phase or exam
// section. The second result is false when the phase is untimed: free mode,
// a nil config, or an exam section index out of range.
func PlannedDuration(cfg Config, phase Phase, section int) (time.Duration, bool) {
	switch c := cfg.(type) {
	case Free:
		return 0, false
	case Countdown:
		return c.Duration, true
	case WorkBreak:
		if phase == PhaseBreak {
			return c.Break, true
		}

		return c.Work, true
	case Exam:
		if section < 0 || section >= len(c.Sections) {
			return 0, false
		}

		return c.Sections[section].Duration, true
	}

	return 0, false
}

// WorkDuration returns the configured work length of a work/break cycle, or
// zero for any other mode.
func WorkDuration(cfg Config) time.Duration {
	if c, ok := cfg.(WorkBreak); ok {
		return c.Work
	}

	return 0
}

// SectionCount returns the number of exam sections, or zero for any other
// mode.
func SectionCount(cfg Config) int {
	if c, ok := cfg.(Exam); ok {
		return len(c.Sections)
	}

	return 0
}

// SectionName returns the name of an exam section, or "" when cfg is not an
// exam or i is out of range.
func SectionName(cfg Config, i int) string {
	c, ok := cfg.(Exam)
	if !ok || i < 0 || i >= len(c.Sections) {
		return ""
	}

	return c.Sections[i].Name
}
