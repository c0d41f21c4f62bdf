package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/ddorjelama/KeyUsageProfiler/internal/config"
	"github.com/ddorjelama/KeyUsageProfiler/internal/expiry"
	"github.com/ddorjelama/KeyUsageProfiler/internal/flush"
	"github.com/ddorjelama/KeyUsageProfiler/internal/ingest"
	"github.com/ddorjelama/KeyUsageProfiler/internal/notify"
	"github.com/ddorjelama/KeyUsageProfiler/internal/runtime"
	httpserver "github.com/ddorjelama/KeyUsageProfiler/internal/server/http"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// Options for running the server process.
type Options struct {
	Config cfgpkg.Config
}

// Run starts the full pipeline and blocks until ctx is cancelled: the
// Kafka consumer, the expiry reactor, the flush job, and the HTTP server.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers without
	// signal handling still shut down cleanly.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := opts.Config.Validate(); err != nil {
		return err
	}

	logCfg := &logpkg.Config{
		Level:  opts.Config.LogLevel,
		Format: opts.Config.LogFormat,
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g. Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(sctx, runtime.Options{Config: opts.Config, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting keystroke pipeline",
		logpkg.Str("http", opts.Config.HTTPAddr),
		logpkg.Str("kafka_topic", opts.Config.Kafka.Topic),
		logpkg.Str("redis", opts.Config.Redis.Addr),
		logpkg.Dur("liveness_window", opts.Config.LivenessWindow()),
		logpkg.Dur("flush_interval", opts.Config.FlushInterval()),
	)

	consumer := ingest.New(ingest.Options{
		Brokers: opts.Config.Kafka.Brokers,
		Topic:   opts.Config.Kafka.Topic,
		GroupID: opts.Config.Kafka.GroupID,
	}, rt.Directory(), rt.Tracker(), rt.Hub(), procLogger.With(logpkg.Component("ingest")))
	defer consumer.Close()

	expirySub := rt.Store().SubscribeExpired(sctx)
	defer expirySub.Close()

	sink := notify.NewLeaderSink(rt.Hub(), rt.PG(), procLogger.With(logpkg.Component("notify")))
	reactor := expiry.New(rt.Directory(), sink, procLogger.With(logpkg.Component("expiry")))
	flusher := flush.New(rt.Tracker(), rt.Archive(), procLogger.With(logpkg.Component("flush")))
	hsrv := httpserver.New(rt, procLogger.With(logpkg.Component("http")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("kafka consumer stopped", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reactor.Run(sctx, expirySub.Keys()); err != nil && sctx.Err() == nil {
			procLogger.Error("expiry reactor stopped", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := flusher.Run(sctx, opts.Config.FlushInterval()); err != nil && sctx.Err() == nil {
			procLogger.Error("flush job stopped", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.Config.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server stopped", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Stop the outward surface before closing the runtime to avoid races.
	hsrv.Close()
	wg.Wait()

	// Leave no buffered events behind on a clean shutdown.
	flusher.RunOnce(context.Background())
	return nil
}
