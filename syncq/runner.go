package syncq

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Notifier pushes connectivity changes, true when the backend became
// reachable and false when it was lost.
type Notifier interface {
	Connectivity() <-chan bool
}

// Runner triggers Process on start when online, on every offline to online
// transition and periodically while online.
type Runner struct {
	queue    *Queue
	notifier Notifier
	log      *slog.Logger
	kick     chan struct{}
	onResult func(Result)
	interval time.Duration
	probe    time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithNotifier makes the runner follow pushed connectivity changes instead
// of probing the backend.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithInterval sets the period between two runs while online.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithProbeInterval sets how often the backend is pinged to detect
// connectivity changes.
func WithProbeInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.probe = d
		}
	}
}

// WithRunnerLogger sets the logger for connectivity changes and runs.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithResultHandler registers fn to receive the counts of every run.
func WithResultHandler(fn func(Result)) RunnerOption {
	return func(r *Runner) { r.onResult = fn }
}

// NewRunner returns a runner for q.
func NewRunner(q *Queue, opts ...RunnerOption) *Runner {
	r := &Runner{
		queue:    q,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		kick:     make(chan struct{}, 1),
		interval: time.Minute,
		probe:    15 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Kick requests a run as soon as possible if the backend is online. It never
// blocks.
func (r *Runner) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.queue.backend == nil {
		return errNoBackend
	}

	online := r.reachable(ctx)
	if online {
		r.process(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var (
		probe   <-chan time.Time
		changes <-chan bool
	)

	if r.notifier != nil {
		changes = r.notifier.Connectivity()
	} else {
		probeTicker := time.NewTicker(r.probe)
		defer probeTicker.Stop()

		probe = probeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if online {
				r.process(ctx)
			}

		case <-r.kick:
			if online {
				r.process(ctx)
			}

		case <-probe:
			now := r.reachable(ctx)
			if now && !online {
				r.log.Info("sync backend is reachable")
				r.process(ctx)
			}

			online = now

		case now, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}

			if now && !online {
				r.log.Info("sync backend is reachable")
				r.process(ctx)
			}

			online = now
		}
	}
}

func (r *Runner) reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.queue.backend.Ping(ctx); err != nil {
		r.log.Debug("sync backend unreachable", "error", err)
		return false
	}

	return true
}

func (r *Runner) process(ctx context.Context) {
	res, err := r.queue.Process(ctx)
	if err != nil {
		if IsNotAuthenticated(err) {
			r.log.Debug("skipping sync", "error", err)
		} else {
			r.log.Warn("sync run failed", "error", err)
		}

		return
	}

	if r.onResult != nil {
		r.onResult(res)
	}
}
