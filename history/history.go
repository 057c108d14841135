// Package history is the local record of finished study sessions. Every
// change is written locally first and then queued for remote sync.
package history

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/internal/timeutil"
)

// Records is the durable storage of session records.
type Records interface {
	PutSession(sess *models.Session) error
	GetSession(id string) (*models.Session, error)
	Sessions() ([]models.Session, error)
	DeleteSession(id string) error
	ClearSessions() error
}

// Enqueuer receives the mutations to sync.
type Enqueuer interface {
	Enqueue(action models.Action, sessionID string, payload *models.Session) error
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Since time.Time
	Until time.Time
	Mode  mode.Kind
}

func (f Filter) match(s *models.Session) bool {
	if !f.Since.IsZero() && s.CompletedAt.Before(f.Since) {
		return false
	}

	if !f.Until.IsZero() && s.CompletedAt.After(f.Until) {
		return false
	}

	return f.Mode == "" || f.Mode == s.Mode
}

// Store is the session store.
type Store struct {
	records Records
	queue   Enqueuer
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithQueue sets where mutations are queued for sync. Without one, changes
// stay local.
func WithQueue(q Enqueuer) Option {
	return func(s *Store) { s.queue = q }
}

// WithLogger sets the logger for queueing failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store backed by records.
func New(records Records, opts ...Option) *Store {
	s := &Store{
		records: records,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put saves sess, assigning an id when it has none, and queues it for sync.
// A queueing failure is logged, not returned: the record is already saved.
func (s *Store) Put(_ context.Context, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	if err := s.records.PutSession(sess); err != nil {
		return err
	}

	s.enqueue(models.ActionUpsert, sess.ID, sess)

	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(_ context.Context, id string) (*models.Session, error) {
	return s.records.GetSession(id)
}

// List returns the records matching f, most recently completed first.
func (s *Store) List(_ context.Context, f Filter) ([]models.Session, error) {
	all, err := s.records.Sessions()
	if err != nil {
		return nil, err
	}

	all = slices.DeleteFunc(all, func(sess models.Session) bool {
		return !f.match(&sess)
	})

	slices.SortStableFunc(all, func(a, b models.Session) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})

	return all, nil
}

// Delete removes the record and queues a remote soft delete.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := s.records.DeleteSession(id); err != nil {
		return err
	}

	s.enqueue(models.ActionDelete, id, nil)

	return nil
}

// Clear removes every local record. Remote copies are not touched.
func (s *Store) Clear(_ context.Context) error {
	return s.records.ClearSessions()
}

func (s *Store) enqueue(action models.Action, id string, payload *models.Session) {
	if s.queue == nil {
		return
	}

	if err := s.queue.Enqueue(action, id, payload); err != nil {
		s.log.Warn(
			"queueing session for sync failed",
			"session_id", id,
			"action", action,
			"error", err,
		)
	}
}

// Streak returns the number of consecutive calendar days, ending on the day
// of now, with at least one recorded session. A streak that ended yesterday
// still counts, since today's session may not have been recorded yet.
func (s *Store) Streak(ctx context.Context, now time.Time) (int, error) {
	all, err := s.List(ctx, Filter{})
	if err != nil {
		return 0, err
	}

	days := make(map[string]bool, len(all))

	for i := range all {
		days[timeutil.DayKey(all[i].CompletedAt)] = true
	}

	day := now
	if !days[timeutil.DayKey(day)] {
		day = day.AddDate(0, 0, -1)
	}

	var streak int

	for days[timeutil.DayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}

	return streak, nil
}
