package ingest

import (
	"context"
	"errors"

	kafka "github.com/segmentio/kafka-go"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/fanout"
	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	"github.com/ddorjelama/KeyUsageProfiler/internal/liveness"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// PushTopic is the fanout topic resolved keystrokes are published on.
const PushTopic = "keystrokes"

// Options configures the Kafka consumer.
type Options struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer pulls raw keystrokes off Kafka and runs each through the
// pipeline: validate, record liveness, resolve the author, push to the
// team leader. Rejected events are dropped without stopping the stream.
type Consumer struct {
	reader  *kafka.Reader
	dir     directory.Directory
	tracker *liveness.Tracker
	hub     *fanout.Hub
	logger  logpkg.Logger
}

// New builds a Consumer in the given consumer group. Group membership is
// what lets multiple instances split partitions while keeping one author's
// stream on one instance.
func New(opts Options, dir directory.Directory, tracker *liveness.Tracker, hub *fanout.Hub, logger logpkg.Logger) *Consumer {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("ingest"))
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: opts.Brokers,
		Topic:   opts.Topic,
		GroupID: opts.GroupID,
	})
	return &Consumer{reader: reader, dir: dir, tracker: tracker, hub: hub, logger: logger}
}

// Run consumes until ctx is cancelled. Offsets commit after handling, so a
// crash replays at most the in-flight batch; replays re-arm markers and
// re-buffer events, which downstream consumers tolerate.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		c.handle(ctx, msg.Value)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("offset commit failed", logpkg.Err(err))
		}
	}
}

// Close shuts the underlying reader down.
func (c *Consumer) Close() error { return c.reader.Close() }

// handle runs one raw payload through the pipeline. Drops are terminal for
// the event, never for the consumer.
func (c *Consumer) handle(ctx context.Context, raw []byte) {
	ev, err := keystroke.Decode(raw)
	if err != nil {
		c.logger.Warn("dropping malformed keystroke", logpkg.Err(err))
		return
	}
	author, found, err := c.dir.FindAuthor(ctx, ev.Author.ID)
	if err != nil {
		c.logger.Error("author lookup failed", logpkg.Err(err), logpkg.Int64("author", ev.Author.ID))
		return
	}
	if !found {
		c.logger.Warn("dropping keystroke from unknown author", logpkg.Int64("author", ev.Author.ID))
		return
	}
	if author.Team == nil {
		// No team means no leader stream and no liveness contract.
		return
	}
	// Buffer the event as it arrived, before author enrichment. Marker and
	// buffer survive on a best-effort basis.
	if err := c.tracker.RecordActivity(ctx, author.ID, ev); err != nil {
		c.logger.Error("recording activity failed", logpkg.Err(err), logpkg.Int64("author", author.ID))
	}
	if author.Status != directory.StatusActive {
		if err := c.dir.SetAuthorStatus(ctx, author.ID, directory.StatusActive); err != nil {
			c.logger.Error("status upgrade failed", logpkg.Err(err), logpkg.Int64("author", author.ID))
		}
	}
	ev.Author = author
	payload, err := ev.Encode()
	if err != nil {
		c.logger.Error("encoding resolved keystroke failed", logpkg.Err(err))
		return
	}
	c.hub.Publish(author.Team.LeaderUsername, PushTopic, payload)
}
