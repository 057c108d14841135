package syncq_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/studytime/internal/clock/clocktest"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/store"
	"github.com/ayoisaiah/studytime/syncq"
)

var errOffline = errors.New("connection refused")

type call struct {
	action    models.Action
	userID    string
	sessionID string
}

type fakeBackend struct {
	// failing holds the session ids whose delivery fails. A nil map fails
	// nothing.
	failing map[string]bool
	// block, when set, is received from before each delivery returns.
	block   chan struct{}
	entered chan struct{}
	calls   []call
	offline bool
	mu      sync.Mutex
}

func (b *fakeBackend) record(c call) error {
	if b.entered != nil {
		b.entered <- struct{}{}
	}

	if b.block != nil {
		<-b.block
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, c)

	if b.offline || b.failing[c.sessionID] {
		return errOffline
	}

	return nil
}

func (b *fakeBackend) Upsert(_ context.Context, row *models.Row) error {
	return b.record(call{models.ActionUpsert, row.UserID, row.ID})
}

func (b *fakeBackend) SoftDelete(_ context.Context, userID, sessionID string) error {
	return b.record(call{models.ActionDelete, userID, sessionID})
}

func (b *fakeBackend) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.offline {
		return errOffline
	}

	return nil
}

func (b *fakeBackend) setOffline(v bool) {
	b.mu.Lock()
	b.offline = v
	b.mu.Unlock()
}

func (b *fakeBackend) delivered() []call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]call(nil), b.calls...)
}

type fakeAuth string

func (a fakeAuth) CurrentUser(context.Context) (string, error) {
	if a == "" {
		return "", errors.New("no token")
	}

	return string(a), nil
}

var epoch = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type harness struct {
	clock   *clocktest.Clock
	db      *store.Client
	backend *fakeBackend
	queue   *syncq.Queue
}

func newHarness(t *testing.T, opts ...syncq.Option) *harness {
	t.Helper()

	db, err := store.NewClient(filepath.Join(t.TempDir(), "studytime.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	h := &harness{
		clock:   clocktest.NewClock(epoch),
		db:      db,
		backend: &fakeBackend{},
	}

	var n int

	base := []syncq.Option{
		syncq.WithClock(h.clock),
		syncq.WithBackend(h.backend),
		syncq.WithAuthenticator(fakeAuth("user-1")),
		syncq.WithBackoff(syncq.Backoff{
			Base:      2 * time.Second,
			Max:       10 * time.Minute,
			MaxJitter: time.Second,
		}),
		syncq.WithIDGenerator(func() string {
			n++
			return "entry-" + strconv.Itoa(n)
		}),
	}

	h.queue = syncq.New(db, append(base, opts...)...)

	return h
}

func session(id string, elapsed int) *models.Session {
	return &models.Session{
		ID:             id,
		Mode:           mode.KindFree,
		ElapsedSeconds: elapsed,
		CompletedAt:    epoch,
	}
}

func (h *harness) enqueue(t *testing.T, action models.Action, s *models.Session) {
	t.Helper()

	var payload *models.Session
	if action == models.ActionUpsert {
		payload = s
	}

	require.NoError(t, h.queue.Enqueue(action, s.ID, payload))

	// keep CreatedAt strictly increasing
	h.clock.Advance(time.Millisecond)
}

func TestEnqueueCoalescesBySession(t *testing.T) {
	h := newHarness(t)

	h.enqueue(t, models.ActionUpsert, session("s1", 60))
	h.enqueue(t, models.ActionUpsert, session("s1", 90))

	entries, err := h.queue.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "s1", e.SessionID)
	assert.Equal(t, 90, e.Payload.ElapsedSeconds)
	assert.Zero(t, e.RetryCount)
	assert.False(t, e.IsFailed)
	assert.True(t, e.NextAttemptAt.IsZero())

	h.enqueue(t, models.ActionDelete, session("s1", 0))

	entries, err = h.queue.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Nil(t, entries[0].Payload)
}

func TestEnqueueFreezesPayload(t *testing.T) {
	h := newHarness(t)

	s := session("s1", 60)
	s.SectionBreaks = []int{5}

	h.enqueue(t, models.ActionUpsert, s)

	s.ElapsedSeconds = 1
	s.SectionBreaks[0] = 99

	entries, err := h.queue.Entries()
	require.NoError(t, err)
	assert.Equal(t, 60, entries[0].Payload.ElapsedSeconds)
	assert.Equal(t, []int{5}, entries[0].Payload.SectionBreaks)
}

func TestProcessDeliversOldestFirst(t *testing.T) {
	h := newHarness(t)

	h.enqueue(t, models.ActionUpsert, session("c", 1))
	h.enqueue(t, models.ActionUpsert, session("a", 1))
	h.enqueue(t, models.ActionDelete, session("b", 1))

	res, err := h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Flushed: 3}, res)

	assert.Equal(t, []call{
		{models.ActionUpsert, "user-1", "c"},
		{models.ActionUpsert, "user-1", "a"},
		{models.ActionDelete, "user-1", "b"},
	}, h.backend.delivered())

	entries, err := h.queue.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessBacksOffAndFailsAtCeiling(t *testing.T) {
	h := newHarness(t)
	h.backend.failing = map[string]bool{"s1": true}

	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	for k := 1; k < syncq.MaxRetries; k++ {
		res, err := h.queue.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, syncq.Result{Scheduled: 1}, res, "failure %d", k)

		entries, err := h.queue.Entries()
		require.NoError(t, err)
		require.Len(t, entries, 1)

		e := entries[0]
		now := h.clock.Now()

		assert.Equal(t, k, e.RetryCount)
		assert.False(t, e.IsFailed)
		assert.Equal(t, errOffline.Error(), e.LastError)
		assert.True(t, e.NextAttemptAt.After(now), "failure %d", k)

		delay := e.NextAttemptAt.Sub(now)
		base := (syncq.Backoff{Base: 2 * time.Second, Max: 10 * time.Minute}).Delay(k)
		assert.GreaterOrEqual(t, delay, base)
		assert.Less(t, delay, base+time.Second)

		// Not due yet: counted as scheduled without a delivery attempt.
		attempts := len(h.backend.delivered())

		res, err = h.queue.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, syncq.Result{Scheduled: 1}, res)
		assert.Len(t, h.backend.delivered(), attempts)

		h.clock.Set(e.NextAttemptAt)
	}

	res, err := h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Failed: 1}, res)

	failed, err := h.queue.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.True(t, failed[0].IsFailed)
	assert.Equal(t, syncq.MaxRetries, failed[0].RetryCount)
	assert.True(t, failed[0].NextAttemptAt.IsZero())

	// Failed entries are kept and never attempted again.
	attempts := len(h.backend.delivered())

	res, err = h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Failed: 1}, res)
	assert.Len(t, h.backend.delivered(), attempts)
}

func TestScheduledEntryDoesNotBlockLaterOnes(t *testing.T) {
	h := newHarness(t)
	h.backend.failing = map[string]bool{"s1": true}

	h.enqueue(t, models.ActionUpsert, session("s1", 60))
	h.enqueue(t, models.ActionUpsert, session("s2", 60))

	res, err := h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Flushed: 1, Scheduled: 1}, res)

	h.enqueue(t, models.ActionUpsert, session("s3", 60))

	res, err = h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Flushed: 1, Scheduled: 1}, res)
}

func TestProcessPreconditions(t *testing.T) {
	t.Run("no backend", func(t *testing.T) {
		h := newHarness(t, syncq.WithBackend(nil))
		h.enqueue(t, models.ActionUpsert, session("s1", 60))

		res, err := h.queue.Process(context.Background())
		assert.True(t, syncq.IsNoBackend(err))
		assert.Equal(t, syncq.Result{}, res)
	})

	t.Run("signed out", func(t *testing.T) {
		h := newHarness(t, syncq.WithAuthenticator(fakeAuth("")))
		h.enqueue(t, models.ActionUpsert, session("s1", 60))

		res, err := h.queue.Process(context.Background())
		assert.True(t, syncq.IsNotAuthenticated(err))
		assert.Equal(t, syncq.Result{}, res)
		assert.Empty(t, h.backend.delivered())

		entries, err := h.queue.Entries()
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestProcessIsSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.backend.block = make(chan struct{})
	h.backend.entered = make(chan struct{})

	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	done := make(chan syncq.Result)

	go func() {
		res, _ := h.queue.Process(context.Background())
		done <- res
	}()

	<-h.backend.entered

	res, err := h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{}, res)

	close(h.backend.block)

	assert.Equal(t, syncq.Result{Flushed: 1}, <-done)
}

func TestStatusAndRetry(t *testing.T) {
	h := newHarness(t)
	h.backend.failing = map[string]bool{"s1": true}

	h.enqueue(t, models.ActionUpsert, session("s1", 60))

	status, err := h.queue.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncPending, status)

	status, err = h.queue.Status("unknown")
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, status)

	for range syncq.MaxRetries {
		_, err := h.queue.Process(context.Background())
		require.NoError(t, err)

		h.clock.Advance(time.Hour)
	}

	status, err = h.queue.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncFailed, status)

	failed, err := h.queue.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)

	h.backend.failing = nil

	require.NoError(t, h.queue.Retry(failed[0].ID))
	assert.Error(t, h.queue.Retry(failed[0].ID), "entry is no longer failed")

	res, err := h.queue.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, syncq.Result{Flushed: 1}, res)

	status, err = h.queue.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, status)
}

func TestBackoffDelay(t *testing.T) {
	b := syncq.Backoff{Base: 2 * time.Second, Max: 10 * time.Minute}

	cases := map[int]time.Duration{
		0:  2 * time.Second,
		1:  4 * time.Second,
		3:  16 * time.Second,
		7:  256 * time.Second,
		8:  512 * time.Second,
		9:  10 * time.Minute,
		60: 10 * time.Minute,
	}

	for retries, want := range cases {
		assert.Equal(t, want, b.Delay(retries), "Delay(%d)", retries)
	}
}
