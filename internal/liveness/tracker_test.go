package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	redisstore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/redis"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := redisstore.Open(context.Background(), redisstore.Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, 29*time.Second, nil), mr
}

func stroke(authorID int64, key string) keystroke.Event {
	return keystroke.Event{
		Author:     directory.Author{ID: authorID},
		KeyValue:   key,
		IsKeyPress: true,
	}
}

func TestRecordActivitySlidingWindow(t *testing.T) {
	tr, mr := newTestTracker(t)
	ctx := context.Background()

	if err := tr.RecordActivity(ctx, 7, stroke(7, "a")); err != nil {
		t.Fatalf("record: %v", err)
	}
	mr.FastForward(20 * time.Second)
	if err := tr.RecordActivity(ctx, 7, stroke(7, "b")); err != nil {
		t.Fatalf("record: %v", err)
	}
	mr.FastForward(20 * time.Second)

	active, err := tr.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0] != "7" {
		t.Fatalf("author should still be active after re-arm, got %v", active)
	}

	mr.FastForward(10 * time.Second)
	active, err = tr.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("author should have gone quiet, got %v", active)
	}
}

func TestDrainReturnsArrivalOrder(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	for _, k := range []string{"h", "e", "y"} {
		if err := tr.RecordActivity(ctx, 7, stroke(7, k)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	events, err := tr.Drain(ctx, "7")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("want 3 events, got %d", len(events))
	}
	for i, k := range []string{"h", "e", "y"} {
		if events[i].KeyValue != k {
			t.Fatalf("order lost at %d: %+v", i, events)
		}
	}

	// nothing left after the drain
	events, err = tr.Drain(ctx, "7")
	if err != nil {
		t.Fatalf("drain2: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("second drain should be empty, got %+v", events)
	}
}

func TestDrainSkipsUndecodableEntries(t *testing.T) {
	tr, mr := newTestTracker(t)
	ctx := context.Background()

	if err := tr.RecordActivity(ctx, 7, stroke(7, "a")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := mr.RPush("7", "{not json"); err != nil {
		t.Fatalf("rpush: %v", err)
	}
	if err := tr.RecordActivity(ctx, 7, stroke(7, "b")); err != nil {
		t.Fatalf("record: %v", err)
	}

	events, err := tr.Drain(ctx, "7")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(events) != 2 || events[0].KeyValue != "a" || events[1].KeyValue != "b" {
		t.Fatalf("garbage entry should be skipped, got %+v", events)
	}
}

func TestDrainAbsentAuthor(t *testing.T) {
	tr, _ := newTestTracker(t)
	events, err := tr.Drain(context.Background(), "404")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("absent author drains empty, got %+v", events)
	}
}

func TestAuthorFromMarkerKey(t *testing.T) {
	cases := []struct {
		key string
		id  string
		ok  bool
	}{
		{"ttl:7", "7", true},
		{"ttl:", "", false},
		{"invitetoken:3", "", false},
		{"7", "", false},
	}
	for _, c := range cases {
		id, ok := AuthorFromMarkerKey(c.key)
		if id != c.id || ok != c.ok {
			t.Fatalf("%q: got (%q,%v) want (%q,%v)", c.key, id, ok, c.id, c.ok)
		}
	}
}
