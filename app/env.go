package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ayoisaiah/studytime/history"
	"github.com/ayoisaiah/studytime/internal/auth"
	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/config"
	"github.com/ayoisaiah/studytime/internal/logging"
	"github.com/ayoisaiah/studytime/internal/pathutil"
	"github.com/ayoisaiah/studytime/remote/remotedb"
	"github.com/ayoisaiah/studytime/remote/remotenats"
	"github.com/ayoisaiah/studytime/store"
	"github.com/ayoisaiah/studytime/syncq"
)

// env holds every collaborator of a command. It is built once per command
// and closed when the command returns.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *store.Client
	history  *history.Store
	queue    *syncq.Queue
	auth     *auth.TokenFile
	notifier syncq.Notifier
	clock    clock.Clock
	closers  []io.Closer
	// hasBackend is false when sync is off.
	hasBackend bool
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// loadConfig resolves the file locations and builds the configuration.
// extra options are applied after the config file, so CLI flags win.
func loadConfig(extra ...config.Option) (*config.Config, error) {
	paths, err := pathutil.Resolve()
	if err != nil {
		return nil, err
	}

	opts := []config.Option{
		config.WithViperConfig(paths.ConfigFile),
		config.WithPaths(paths.ConfigFile, paths.DBFile, paths.LogFile, paths.TokenFile),
	}

	return config.New(append(opts, extra...)...)
}

// newEnv opens the local database and connects the configured sync backend.
func newEnv(cfg *config.Config) (*env, error) {
	e := &env{
		cfg:   cfg,
		clock: clock.Real{},
	}

	log, closer, err := logging.New(logging.Options{
		Path:       cfg.System.LogPath,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	e.log = log
	e.closers = append(e.closers, closer)

	e.db, err = store.NewClient(cfg.System.DBPath)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.closers = append(e.closers, e.db)

	e.auth = auth.NewTokenFile(cfg.Sync.TokenFile, e.clock)

	queueOpts := []syncq.Option{
		syncq.WithAuthenticator(e.auth),
		syncq.WithClock(e.clock),
		syncq.WithLogger(log.With("component", "syncq")),
		syncq.WithBackoff(syncq.Backoff{
			Base:      cfg.Sync.BaseDelay,
			Max:       cfg.Sync.MaxDelay,
			MaxJitter: cfg.Sync.MaxJitter,
		}),
	}

	backend, err := e.openBackend()
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	if backend != nil {
		e.hasBackend = true
		queueOpts = append(queueOpts, syncq.WithBackend(backend))
	}

	e.queue = syncq.New(e.db, queueOpts...)
	e.history = history.New(e.db,
		history.WithQueue(e.queue),
		history.WithLogger(log.With("component", "history")),
	)

	return e, nil
}

// openBackend connects the configured remote backend. It returns nil when
// sync is off.
func (e *env) openBackend() (syncq.Backend, error) {
	s := e.cfg.Sync

	switch s.Backend {
	case config.BackendPostgres, config.BackendSQLite:
		dialect := remotedb.DialectPostgres
		if s.Backend == config.BackendSQLite {
			dialect = remotedb.DialectSQLite
		}

		b, err := remotedb.Open(dialect, s.DSN, e.log.With("component", "remotedb"))
		if err != nil {
			return nil, fmt.Errorf("opening %s sync backend: %w", s.Backend, err)
		}

		e.closers = append(e.closers, b)

		return b, nil

	case config.BackendNATS:
		b, err := remotenats.Connect(s.NATSURL, s.SubjectPrefix, e.log.With("component", "remotenats"))
		if err != nil {
			return nil, err
		}

		e.notifier = b
		e.closers = append(e.closers, closeFunc(func() error {
			b.Close()
			return nil
		}))

		return b, nil
	}

	return nil, nil
}

// runner returns a sync runner for the queue, listening to connectivity
// changes when the backend reports them.
func (e *env) runner(onResult func(syncq.Result)) *syncq.Runner {
	opts := []syncq.RunnerOption{
		syncq.WithInterval(e.cfg.Sync.Interval),
		syncq.WithProbeInterval(e.cfg.Sync.ProbeInterval),
		syncq.WithRunnerLogger(e.log.With("component", "runner")),
	}

	if e.notifier != nil {
		opts = append(opts, syncq.WithNotifier(e.notifier))
	}

	if onResult != nil {
		opts = append(opts, syncq.WithResultHandler(onResult))
	}

	return syncq.NewRunner(e.queue, opts...)
}

// Close releases the collaborators in reverse order of creation.
func (e *env) Close() error {
	var errs []error

	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
