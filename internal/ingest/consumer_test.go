package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/fanout"
	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	"github.com/ddorjelama/KeyUsageProfiler/internal/liveness"
	redisstore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/redis"
	logpkg "github.com/ddorjelama/KeyUsageProfiler/pkg/log"
)

func testLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
}

func newTestConsumer(t *testing.T) (*Consumer, *directory.Memory, *liveness.Tracker, *fanout.Hub) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := redisstore.Open(context.Background(), redisstore.Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	dir := directory.NewMemory()
	dir.PutTeam(directory.Team{ID: 3, Name: "typists", LeaderID: 9, LeaderUsername: "lead@ua.pt"})
	dir.PutAuthor(directory.Author{ID: 7, Name: "ana", Email: "ana@ua.pt", Status: directory.StatusInactive}, 3)
	dir.PutAuthor(directory.Author{ID: 4, Name: "solo", Email: "solo@ua.pt"}, 0)

	tracker := liveness.New(st, 29*time.Second, nil)
	hub := fanout.NewHub(4, nil)
	return &Consumer{dir: dir, tracker: tracker, hub: hub, logger: testLogger()}, dir, tracker, hub
}

func TestHandleAcceptedKeystroke(t *testing.T) {
	c, dir, tracker, hub := newTestConsumer(t)
	ctx := context.Background()

	sub, err := hub.Subscribe("lead@ua.pt", []string{PushTopic}, "")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	c.handle(ctx, []byte(`{"author":{"id":7},"keyValue":"a","isKeyPress":true}`))

	// liveness recorded
	active, err := tracker.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0] != "7" {
		t.Fatalf("author not marked active: %v", active)
	}
	events, err := tracker.Drain(ctx, "7")
	if err != nil || len(events) != 1 {
		t.Fatalf("event not buffered: %v %v", events, err)
	}
	// buffered copy keeps the raw inbound author, not the resolved one
	if events[0].Author.Email != "" {
		t.Fatalf("buffered event should predate resolution: %+v", events[0])
	}

	// status upgraded
	a, _, _ := dir.FindAuthor(ctx, 7)
	if a.Status != directory.StatusActive {
		t.Fatalf("status not upgraded: %+v", a)
	}

	// leader received the resolved event
	select {
	case m := <-sub.Messages():
		ev, err := keystroke.Decode(m.Payload)
		if err != nil {
			t.Fatalf("decode pushed event: %v", err)
		}
		if ev.Author.Email != "ana@ua.pt" || ev.KeyValue != "a" {
			t.Fatalf("pushed event not resolved: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("leader got nothing")
	}
}

func TestHandleDropsMalformed(t *testing.T) {
	c, _, tracker, _ := newTestConsumer(t)
	ctx := context.Background()

	c.handle(ctx, []byte("{broken"))
	c.handle(ctx, []byte(`{"keyValue":"a"}`)) // no author id

	if active, _ := tracker.ListActive(ctx); len(active) != 0 {
		t.Fatalf("malformed events must not mark anyone active: %v", active)
	}
}

func TestHandleDropsUnknownAuthor(t *testing.T) {
	c, _, tracker, _ := newTestConsumer(t)
	ctx := context.Background()

	c.handle(ctx, []byte(`{"author":{"id":404},"keyValue":"a","isKeyPress":true}`))

	if active, _ := tracker.ListActive(ctx); len(active) != 0 {
		t.Fatalf("unknown authors must be dropped: %v", active)
	}
}

func TestHandleDropsTeamlessAuthor(t *testing.T) {
	c, _, tracker, _ := newTestConsumer(t)
	ctx := context.Background()

	c.handle(ctx, []byte(`{"author":{"id":4},"keyValue":"a","isKeyPress":true}`))

	if active, _ := tracker.ListActive(ctx); len(active) != 0 {
		t.Fatalf("teamless authors must be dropped: %v", active)
	}
	if events, _ := tracker.Drain(ctx, "4"); len(events) != 0 {
		t.Fatalf("teamless authors must not buffer: %+v", events)
	}
}

func TestHandlePreservesPerAuthorOrder(t *testing.T) {
	c, _, tracker, _ := newTestConsumer(t)
	ctx := context.Background()

	for _, k := range []string{"h", "i", "!"} {
		c.handle(ctx, []byte(`{"author":{"id":7},"keyValue":"`+k+`","isKeyPress":true}`))
	}
	events, err := tracker.Drain(ctx, "7")
	if err != nil || len(events) != 3 {
		t.Fatalf("drain: %v %v", events, err)
	}
	for i, k := range []string{"h", "i", "!"} {
		if events[i].KeyValue != k {
			t.Fatalf("order lost at %d: %+v", i, events)
		}
	}
}
