// Package clocktest provides a fake clock and a manually driven scheduler.
package clocktest

import (
	"sort"
	"sync"
	"time"

	"github.com/ayoisaiah/studytime/internal/clock"
)

// Clock is a settable clock.Clock.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock returns a Clock set to t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the fake current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type task struct {
	at       time.Time
	fn       func()
	canceled bool
}

// Scheduler is a clock.Scheduler that only runs callbacks when Fire is
// called. Due times are measured against the paired Clock.
type Scheduler struct {
	clock *Clock
	tasks []*task
	mu    sync.Mutex
}

// NewScheduler returns a Scheduler reading due times from c.
func NewScheduler(c *Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// After records fn to run once the clock reaches now+d.
func (s *Scheduler) After(d time.Duration, fn func()) clock.Cancel {
	t := &task{at: s.clock.Now().Add(d), fn: fn}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		t.canceled = true
		s.mu.Unlock()
	}
}

// Pending reports how many callbacks are scheduled and not cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int

	for _, t := range s.tasks {
		if !t.canceled {
			n++
		}
	}

	return n
}

// Fire runs every callback that is due at the current clock time, in due
// order, and returns how many ran. Callbacks scheduled while firing are not
// run until the next call.
func (s *Scheduler) Fire() int {
	now := s.clock.Now()

	s.mu.Lock()

	var due, rest []*task

	for _, t := range s.tasks {
		switch {
		case t.canceled:
		case !t.at.After(now):
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}

	s.tasks = rest
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].at.Before(due[j].at)
	})

	var ran int

	for _, t := range due {
		s.mu.Lock()
		canceled := t.canceled
		s.mu.Unlock()

		if canceled {
			continue
		}

		t.fn()
		ran++
	}

	return ran
}
