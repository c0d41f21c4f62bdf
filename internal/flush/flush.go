package flush

import (
	"context"
	"sync"
	"time"

	"github.com/ddorjelama/KeyUsageProfiler/internal/archive"
	"github.com/ddorjelama/KeyUsageProfiler/internal/liveness"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// Job periodically drains active authors' buffers into the archive. Cycles
// never overlap: a tick that fires while the previous cycle still runs is
// skipped.
type Job struct {
	tracker *liveness.Tracker
	arch    *archive.Archive
	logger  logpkg.Logger
	mu      sync.Mutex
}

// New builds a flush Job over the tracker and archive.
func New(tracker *liveness.Tracker, arch *archive.Archive, logger logpkg.Logger) *Job {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("flush"))
	}
	return &Job{tracker: tracker, arch: arch, logger: logger}
}

// Run flushes on the given interval until ctx is cancelled.
func (j *Job) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !j.mu.TryLock() {
				j.logger.Warn("skipping flush tick, previous cycle still running")
				continue
			}
			j.runLocked(ctx)
			j.mu.Unlock()
		}
	}
}

// RunOnce performs a single flush cycle, waiting out any in-flight cycle
// first.
func (j *Job) RunOnce(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runLocked(ctx)
}

// runLocked drains every author active at cycle start. Authors are
// independent: one author's failure leaves the rest of the cycle intact.
// An author expiring between the scan and the drain yields an empty drain,
// which is fine.
func (j *Job) runLocked(ctx context.Context) {
	authors, err := j.tracker.ListActive(ctx)
	if err != nil {
		j.logger.Error("active author scan failed", logpkg.Err(err))
		return
	}
	for _, authorID := range authors {
		events, err := j.tracker.Drain(ctx, authorID)
		if err != nil {
			j.logger.Error("buffer drain failed", logpkg.Err(err), logpkg.Str("author", authorID))
			continue
		}
		if len(events) == 0 {
			continue
		}
		if _, err := j.arch.Append(ctx, authorID, events); err != nil {
			j.logger.Error("archive append failed", logpkg.Err(err), logpkg.Str("author", authorID))
			continue
		}
		j.logger.Debug("flushed author buffer", logpkg.Str("author", authorID), logpkg.Int("events", len(events)))
	}
}
