package liveness

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	redisstore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/redis"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// MarkerPrefix is the key namespace of liveness markers. A marker's presence
// is the sole definition of "author is active"; its natural expiry is the
// sole trigger for inactivity handling.
const MarkerPrefix = "ttl:"

// Tracker maintains per-author liveness markers and keystroke buffers in the
// Redis store. Marker and buffer writes target independent keys, so the two
// operations need no cross-key atomicity.
type Tracker struct {
	store  *redisstore.Store
	window time.Duration
	logger logpkg.Logger
}

// New returns a Tracker with the given sliding liveness window.
func New(store *redisstore.Store, window time.Duration, logger logpkg.Logger) *Tracker {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("liveness"))
	}
	return &Tracker{store: store, window: window, logger: logger}
}

// Window returns the configured liveness window.
func (t *Tracker) Window() time.Duration { return t.window }

// RecordActivity re-arms the author's marker (value and expiry both reset)
// and appends the event to the author's buffer. Both writes are attempted
// even if one fails; a lost write degrades to a lost event, never to
// corrupted state for another author.
func (t *Tracker) RecordActivity(ctx context.Context, authorID int64, ev keystroke.Event) error {
	id := strconv.FormatInt(authorID, 10)
	markerErr := t.store.Set(ctx, MarkerPrefix+id, id, t.window)

	var bufErr error
	if b, err := ev.Encode(); err != nil {
		bufErr = err
	} else {
		bufErr = t.store.Append(ctx, id, b)
	}
	return errors.Join(markerErr, bufErr)
}

// ListActive enumerates authors with an unexpired marker by scanning the
// marker namespace. The result is a snapshot: entries may expire between
// enumeration and use, which callers treat as a benign race.
func (t *Tracker) ListActive(ctx context.Context) ([]string, error) {
	return t.store.ScanValues(ctx, MarkerPrefix)
}

// Drain removes and returns the author's buffered events in arrival order,
// exactly the count present at drain start. Events appended mid-drain belong
// to the next flush cycle. Undecodable entries are dropped with a log line.
func (t *Tracker) Drain(ctx context.Context, authorID string) ([]keystroke.Event, error) {
	raws, err := t.store.PopAll(ctx, authorID)
	if err != nil {
		return nil, err
	}
	events := make([]keystroke.Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := keystroke.Decode(raw)
		if err != nil {
			t.logger.Warn("dropping undecodable buffered event", logpkg.Str("author", authorID))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// AuthorFromMarkerKey extracts the author id from a marker key name.
// Non-marker keys (other namespaces sharing the store) return ok=false.
func AuthorFromMarkerKey(key string) (string, bool) {
	if !strings.HasPrefix(key, MarkerPrefix) {
		return "", false
	}
	id := key[len(MarkerPrefix):]
	if id == "" {
		return "", false
	}
	return id, true
}
