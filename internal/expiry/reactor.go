package expiry

import (
	"context"
	"strconv"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/liveness"
	"github.com/ddorjelama/KeyUsageProfiler/internal/notify"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// Reactor turns liveness marker expiries into status downgrades and leader
// notifications. It consumes key names from the store's keyspace expiry
// subscription; keys from other namespaces on the same store are ignored.
type Reactor struct {
	dir    directory.Directory
	sink   notify.Sink
	logger logpkg.Logger
}

// New builds a Reactor over the directory and notification sink.
func New(dir directory.Directory, sink notify.Sink, logger logpkg.Logger) *Reactor {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("expiry"))
	}
	return &Reactor{dir: dir, sink: sink, logger: logger}
}

// Run consumes expired key names until the channel closes or ctx ends.
func (r *Reactor) Run(ctx context.Context, keys <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			r.handleExpiry(ctx, key)
		}
	}
}

// handleExpiry processes one expired key. Each expiry is handled
// independently: failures are logged and never stop the loop.
func (r *Reactor) handleExpiry(ctx context.Context, key string) {
	idStr, ok := liveness.AuthorFromMarkerKey(key)
	if !ok {
		return
	}
	authorID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		r.logger.Warn("ignoring marker with non-numeric author id", logpkg.Str("key", key))
		return
	}
	author, found, err := r.dir.FindAuthor(ctx, authorID)
	if err != nil {
		r.logger.Error("author lookup failed", logpkg.Err(err), logpkg.Int64("author", authorID))
		return
	}
	if !found {
		// Author removed between activity and expiry. Nothing to downgrade.
		return
	}
	if err := r.dir.SetAuthorStatus(ctx, authorID, directory.StatusInactive); err != nil {
		r.logger.Error("status downgrade failed", logpkg.Err(err), logpkg.Int64("author", authorID))
	}
	// Leaders going quiet is unremarkable, and a teamless author has no one
	// to tell. The status downgrade above still happened for both.
	if author.Team == nil || author.IsTeamLeader() {
		return
	}
	if err := r.sink.Notify(ctx, author); err != nil {
		r.logger.Error("leader notification failed", logpkg.Err(err), logpkg.Int64("author", authorID))
	}
	r.logger.Debug("author went inactive", logpkg.Int64("author", authorID))
}
