// Package clock abstracts wall-clock reads and deferred callbacks so the timer
// engine can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the only source of time for the engine and the sync queue.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by time.Now.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// Cancel stops a scheduled callback. Calling it more than once, or after the
// callback has run, is harmless.
type Cancel func()

// Scheduler runs fn once after d has passed.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
}

// Serial is a Scheduler whose callbacks are handed to post instead of being
// run on the timer goroutine. post is expected to execute fn on the goroutine
// that owns the scheduled state (for instance a bubbletea program loop).
type Serial struct {
	post func(fn func())
}

// NewSerial returns a Serial scheduler. A nil post runs callbacks directly
// on the timer goroutine.
func NewSerial(post func(fn func())) *Serial {
	if post == nil {
		post = func(fn func()) { fn() }
	}

	return &Serial{post: post}
}

// After schedules fn. The returned Cancel also suppresses a callback that
// has already fired but not yet been executed by post.
func (s *Serial) After(d time.Duration, fn func()) Cancel {
	var (
		mu       sync.Mutex
		canceled bool
	)

	t := time.AfterFunc(d, func() {
		s.post(func() {
			mu.Lock()
			skip := canceled
			mu.Unlock()

			if !skip {
				fn()
			}
		})
	})

	return func() {
		mu.Lock()
		canceled = true
		mu.Unlock()

		t.Stop()
	}
}
