package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/fanout"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

// Topic is the fanout topic inactivity notifications are published on.
const Topic = "notifications"

// Notification tells a team leader that one of their members went quiet.
type Notification struct {
	ID         string `json:"id"`
	AuthorID   int64  `json:"authorId"`
	AuthorName string `json:"authorName"`
	Status     string `json:"status"`
	// TS is the emission time in Unix milliseconds.
	TS int64 `json:"ts"`
}

// Sink receives inactivity notifications for an author's team leader.
type Sink interface {
	Notify(ctx context.Context, author directory.Author) error
}

// LeaderSink pushes notifications to the leader's live stream and records
// them in Postgres when a database is attached. The push is the primary
// path; a failed insert is logged and does not block delivery.
type LeaderSink struct {
	hub    *fanout.Hub
	db     *sqlx.DB
	logger logpkg.Logger
}

// NewLeaderSink builds a sink over the hub. db may be nil for push-only
// operation.
func NewLeaderSink(hub *fanout.Hub, db *sqlx.DB, logger logpkg.Logger) *LeaderSink {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("notify"))
	}
	return &LeaderSink{hub: hub, db: db, logger: logger}
}

const insertNotification = `
INSERT INTO notification (id, author_id, leader_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

// Notify emits an inactivity notification for the author to their team
// leader. Callers guarantee the author has a team and is not the leader.
func (s *LeaderSink) Notify(ctx context.Context, author directory.Author) error {
	n := Notification{
		ID:         uuid.NewString(),
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Status:     string(directory.StatusInactive),
		TS:         time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	s.hub.Publish(author.Team.LeaderUsername, Topic, payload)

	if s.db != nil {
		_, err := s.db.ExecContext(ctx, insertNotification,
			n.ID, author.ID, author.Team.LeaderID, n.Status, time.UnixMilli(n.TS))
		if err != nil {
			s.logger.Warn("notification insert failed", logpkg.Err(err), logpkg.Int64("author", author.ID))
		}
	}
	return nil
}
