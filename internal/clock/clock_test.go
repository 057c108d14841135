package clock_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/clock/clocktest"
)

func TestSerialPostsCallbacks(t *testing.T) {
	posted := make(chan func(), 1)

	s := clock.NewSerial(func(fn func()) { posted <- fn })

	var ran atomic.Bool

	s.After(time.Millisecond, func() { ran.Store(true) })

	select {
	case fn := <-posted:
		assert.False(t, ran.Load(), "callback must not run before it is posted")
		fn()
		assert.True(t, ran.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("callback was never posted")
	}
}

func TestSerialCancelAfterFire(t *testing.T) {
	posted := make(chan func(), 1)

	s := clock.NewSerial(func(fn func()) { posted <- fn })

	var ran atomic.Bool

	cancel := s.After(time.Millisecond, func() { ran.Store(true) })

	fn := <-posted

	cancel()
	fn()

	assert.False(t, ran.Load())
}

func TestFakeSchedulerFire(t *testing.T) {
	c := clocktest.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s := clocktest.NewScheduler(c)

	var calls []string

	s.After(2*time.Second, func() { calls = append(calls, "b") })
	s.After(time.Second, func() { calls = append(calls, "a") })
	cancel := s.After(time.Second, func() { calls = append(calls, "x") })

	cancel()

	assert.Equal(t, 2, s.Pending())
	assert.Zero(t, s.Fire())

	c.Advance(2 * time.Second)

	assert.Equal(t, 2, s.Fire())
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Zero(t, s.Pending())
}
