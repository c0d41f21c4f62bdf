package runtime

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/ddorjelama/KeyUsageProfiler/internal/archive"
	cfgpkg "github.com/ddorjelama/KeyUsageProfiler/internal/config"
	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/fanout"
	"github.com/ddorjelama/KeyUsageProfiler/internal/invite"
	"github.com/ddorjelama/KeyUsageProfiler/internal/liveness"
	pebblestore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/pebble"
	redisstore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/redis"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires storage and the domain services for a single-node instance.
// Run loops (the Kafka consumer, the expiry reactor, the flush job, the
// HTTP server) live outside and borrow its pieces.
type Runtime struct {
	config cfgpkg.Config
	logger logpkg.Logger

	db    *pebblestore.DB
	store *redisstore.Store
	pg    *sqlx.DB

	arch    *archive.Archive
	dir     directory.Directory
	hub     *fanout.Hub
	tracker *liveness.Tracker
	invites *invite.Service
}

// Open initializes storage and services. An empty Postgres DSN selects the
// in-memory directory.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	dataDir := opts.Config.DataDir
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: filepath.Join(dataDir, "store")})
	if err != nil {
		return nil, err
	}
	store, err := redisstore.Open(ctx, redisstore.Options{
		Addr:     opts.Config.Redis.Addr,
		Password: opts.Config.Redis.Password,
		DB:       opts.Config.Redis.DB,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rt := &Runtime{config: opts.Config, logger: logger, db: db, store: store}
	if dsn := opts.Config.Postgres.DSN; dsn != "" {
		pgDir, err := directory.OpenPostgres(ctx, dsn)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.pg = pgDir.DB()
		rt.dir = pgDir
	} else {
		logger.Warn("no postgres dsn configured, using in-memory directory")
		rt.dir = directory.NewMemory()
	}

	rt.arch = archive.Open(db)
	rt.hub = fanout.NewHub(opts.Config.SubscriberBuffer, logger.With(logpkg.Component("fanout")))
	rt.tracker = liveness.New(store, opts.Config.LivenessWindow(), logger.With(logpkg.Component("liveness")))
	rt.invites = invite.New(store, opts.Config.InviteTTL())
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	var errs []error
	if r.pg != nil {
		errs = append(errs, r.pg.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// CheckHealth verifies both storage backends answer.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil || r.store == nil {
		return errors.New("runtime not open")
	}
	if err := r.store.Ping(ctx); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Store exposes the Redis-backed transient store.
func (r *Runtime) Store() *redisstore.Store { return r.store }

// Archive exposes the durable keystroke archive.
func (r *Runtime) Archive() *archive.Archive { return r.arch }

// Directory exposes the author/team directory.
func (r *Runtime) Directory() directory.Directory { return r.dir }

// PG exposes the Postgres handle, nil in dev mode.
func (r *Runtime) PG() *sqlx.DB { return r.pg }

// Hub exposes the push fan-out hub.
func (r *Runtime) Hub() *fanout.Hub { return r.hub }

// Tracker exposes the liveness tracker.
func (r *Runtime) Tracker() *liveness.Tracker { return r.tracker }

// Invites exposes the invite token service.
func (r *Runtime) Invites() *invite.Service { return r.invites }
