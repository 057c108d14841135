// Package syncq implements the durable outbound queue that delivers local
// session mutations to the remote backend.
//
// Every mutation is stored before any delivery is attempted, so recording a
// session never depends on the network. Entries for the same session are
// coalesced, failed deliveries are retried with exponential backoff, and an
// entry that fails MaxRetries times is kept in a failed state until the user
// retries it.
package syncq

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/models"
)

// Entries is the durable storage of queue entries.
type Entries interface {
	// ReplaceQueueEntry removes the entries of the same session and stores e
	// atomically.
	ReplaceQueueEntry(e *models.SyncEntry) error
	QueueEntries() ([]models.SyncEntry, error)
	QueueEntry(id string) (*models.SyncEntry, error)
	UpdateQueueEntry(e *models.SyncEntry) error
	DeleteQueueEntry(id string) error
}

// Backend is the remote store the queue delivers to.
type Backend interface {
	Upsert(ctx context.Context, row *models.Row) error
	SoftDelete(ctx context.Context, userID, sessionID string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Authenticator looks up the signed-in user.
type Authenticator interface {
	CurrentUser(ctx context.Context) (string, error)
}

// Result holds the outcome counts of one Process run.
type Result struct {
	Flushed   int `json:"flushed"`
	Failed    int `json:"failed"`
	Scheduled int `json:"scheduled"`
}

// Queue is the durable sync queue. It is safe for concurrent use; Process
// runs are single-flight.
type Queue struct {
	entries Entries
	backend Backend
	auth    Authenticator
	clock   clock.Clock
	log     *slog.Logger
	newID   func() string
	backoff Backoff
	running atomic.Bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithBackend sets the remote backend. Without one, Process does nothing.
func WithBackend(b Backend) Option {
	return func(q *Queue) { q.backend = b }
}

// WithAuthenticator sets the user lookup. Without one, Process does nothing.
func WithAuthenticator(a Authenticator) Option {
	return func(q *Queue) { q.auth = a }
}

// WithClock sets the time source used for timestamps and backoff.
func WithClock(c clock.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// WithBackoff sets the retry delay policy.
func WithBackoff(b Backoff) Option {
	return func(q *Queue) { q.backoff = b }
}

// WithIDGenerator overrides how entry ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// New returns a queue persisting its entries in entries.
func New(entries Entries, opts ...Option) *Queue {
	q := &Queue{
		entries: entries,
		clock:   clock.Real{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   uuid.NewString,
		backoff: DefaultBackoff,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Enqueue stores a mutation for sessionID, replacing any mutation of the
// same session that has not been delivered yet. payload is copied.
func (q *Queue) Enqueue(
	action models.Action,
	sessionID string,
	payload *models.Session,
) error {
	e := &models.SyncEntry{
		ID:        q.newID(),
		Action:    action,
		SessionID: sessionID,
		CreatedAt: q.clock.Now(),
	}

	if payload != nil {
		p := *payload
		p.SectionBreaks = slices.Clone(payload.SectionBreaks)

		if payload.PlannedSeconds != nil {
			v := *payload.PlannedSeconds
			p.PlannedSeconds = &v
		}

		if payload.Correctness != nil {
			v := *payload.Correctness
			p.Correctness = &v
		}

		e.Payload = &p
	}

	return q.entries.ReplaceQueueEntry(e)
}

// Process attempts every due entry once, oldest first. A call made while
// another is in progress returns zero counts immediately. Without a backend
// or a signed-in user it returns zero counts and the reason.
//
// Delivery failures never stop the run. They are recorded on the entry and
// rescheduled, or marked failed once MaxRetries is reached.
func (q *Queue) Process(ctx context.Context) (Result, error) {
	var res Result

	if !q.running.CompareAndSwap(false, true) {
		q.log.Debug("sync already in progress")
		return res, nil
	}

	defer q.running.Store(false)

	if q.backend == nil {
		return res, errNoBackend
	}

	if q.auth == nil {
		return res, errNotAuthenticated
	}

	userID, err := q.auth.CurrentUser(ctx)
	if err != nil || userID == "" {
		return res, errNotAuthenticated.Wrap(err)
	}

	entries, err := q.Entries()
	if err != nil {
		return res, err
	}

	for i := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		e := &entries[i]

		if e.IsFailed {
			res.Failed++
			continue
		}

		now := q.clock.Now()

		if !e.NextAttemptAt.IsZero() && e.NextAttemptAt.After(now) {
			res.Scheduled++
			continue
		}

		err := q.deliver(ctx, userID, e)
		if err == nil {
			if err := q.entries.DeleteQueueEntry(e.ID); err != nil {
				q.log.Warn(
					"removing delivered entry failed",
					"session_id", e.SessionID,
					"error", err,
				)
			}

			res.Flushed++

			continue
		}

		q.fail(e, err)

		if e.IsFailed {
			res.Failed++
		} else {
			res.Scheduled++
		}
	}

	q.log.Info(
		"sync run finished",
		"flushed", res.Flushed,
		"failed", res.Failed,
		"scheduled", res.Scheduled,
	)

	return res, nil
}

func (q *Queue) deliver(
	ctx context.Context,
	userID string,
	e *models.SyncEntry,
) error {
	switch e.Action {
	case models.ActionUpsert:
		if e.Payload == nil {
			return errMissingPayload.Fmt(e.SessionID)
		}

		return q.backend.Upsert(ctx, &models.Row{
			Session: *e.Payload,
			UserID:  userID,
		})
	case models.ActionDelete:
		return q.backend.SoftDelete(ctx, userID, e.SessionID)
	}

	return errUnknownAction.Fmt(e.Action)
}

// fail records a delivery failure on e and persists it.
func (q *Queue) fail(e *models.SyncEntry, cause error) {
	e.RetryCount++
	e.LastError = cause.Error()

	if e.RetryCount >= MaxRetries {
		e.IsFailed = true
		e.NextAttemptAt = time.Time{}
	} else {
		delay := q.backoff.Delay(e.RetryCount) + q.backoff.jitter()
		e.NextAttemptAt = q.clock.Now().Add(delay)
	}

	q.log.Warn(
		"sync delivery failed",
		"session_id", e.SessionID,
		"action", e.Action,
		"retry_count", e.RetryCount,
		"next_attempt_at", e.NextAttemptAt,
		"failed", e.IsFailed,
		"error", cause,
	)

	if err := q.entries.UpdateQueueEntry(e); err != nil {
		// the entry may have been superseded by a newer mutation
		q.log.Warn(
			"recording delivery failure failed",
			"session_id", e.SessionID,
			"error", err,
		)
	}
}

// Entries returns every queued entry, oldest first.
func (q *Queue) Entries() ([]models.SyncEntry, error) {
	entries, err := q.entries.QueueEntries()
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b models.SyncEntry) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	return entries, nil
}

// Failed returns the entries that exhausted their retries, oldest first.
func (q *Queue) Failed() ([]models.SyncEntry, error) {
	entries, err := q.Entries()
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(entries, func(e models.SyncEntry) bool {
		return !e.IsFailed
	}), nil
}

// Status reports the delivery state of the latest mutation of a session.
// A session with nothing queued is synced.
func (q *Queue) Status(sessionID string) (models.SyncStatus, error) {
	statuses, err := q.Statuses()
	if err != nil {
		return "", err
	}

	if s, ok := statuses[sessionID]; ok {
		return s, nil
	}

	return models.SyncSynced, nil
}

// Statuses returns the delivery state of every session that has a queued
// mutation.
func (q *Queue) Statuses() (map[string]models.SyncStatus, error) {
	entries, err := q.entries.QueueEntries()
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]models.SyncStatus, len(entries))

	for _, e := range entries {
		if e.IsFailed {
			statuses[e.SessionID] = models.SyncFailed
		} else {
			statuses[e.SessionID] = models.SyncPending
		}
	}

	return statuses, nil
}

// Retry re-arms a failed entry so the next Process run attempts it again.
func (q *Queue) Retry(id string) error {
	e, err := q.entries.QueueEntry(id)
	if err != nil {
		return err
	}

	if !e.IsFailed {
		return errNotFailed.Fmt(id)
	}

	e.IsFailed = false
	e.RetryCount = 0
	e.NextAttemptAt = time.Time{}

	return q.entries.UpdateQueueEntry(e)
}

// IsNotAuthenticated reports whether err means no user is signed in.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, errNotAuthenticated)
}

// IsNoBackend reports whether err means sync is not configured.
func IsNoBackend(err error) bool {
	return errors.Is(err, errNoBackend)
}
