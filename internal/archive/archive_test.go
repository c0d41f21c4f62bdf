package archive

import (
	"context"
	"testing"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	pebblestore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/pebble"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	a := Open(db)
	a.now = func() int64 { return 1700000000000 }
	return a
}

func strokes(authorID int64, keys ...string) []keystroke.Event {
	evs := make([]keystroke.Event, len(keys))
	for i, k := range keys {
		evs[i] = keystroke.Event{Author: directory.Author{ID: authorID}, KeyValue: k, IsKeyPress: true}
	}
	return evs
}

func TestAppendAssignsDenseSequences(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	seqs, err := a.Append(ctx, "7", strokes(7, "a", "b"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("want seqs 1,2 got %v", seqs)
	}
	seqs, err = a.Append(ctx, "7", strokes(7, "c"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(seqs) != 1 || seqs[0] != 3 {
		t.Fatalf("want seq 3 got %v", seqs)
	}
	if got := a.LastSeq("7"); got != 3 {
		t.Fatalf("lastSeq: %d", got)
	}
	// other authors are independent
	if got := a.LastSeq("9"); got != 0 {
		t.Fatalf("author 9 should be empty, lastSeq=%d", got)
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	a := newTestArchive(t)
	seqs, err := a.Append(context.Background(), "7", nil)
	if err != nil || seqs != nil {
		t.Fatalf("empty append: %v %v", seqs, err)
	}
}

func TestReadRanges(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	if _, err := a.Append(ctx, "7", strokes(7, "a", "b", "c", "d")); err != nil {
		t.Fatalf("append: %v", err)
	}

	all, err := a.Read("7", ReadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 4 || all[0].Seq != 1 || all[3].Seq != 4 {
		t.Fatalf("full scan wrong: %+v", all)
	}
	ev, err := keystroke.Decode(all[0].Payload)
	if err != nil || ev.KeyValue != "a" {
		t.Fatalf("payload lost: %+v %v", ev, err)
	}
	if all[0].TS != 1700000000000 {
		t.Fatalf("archival ts lost: %d", all[0].TS)
	}

	mid, err := a.Read("7", ReadOptions{Start: 2, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(mid) != 2 || mid[0].Seq != 2 || mid[1].Seq != 3 {
		t.Fatalf("range scan wrong: %+v", mid)
	}

	rev, err := a.Read("7", ReadOptions{Reverse: true, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rev) != 2 || rev[0].Seq != 4 || rev[1].Seq != 3 {
		t.Fatalf("reverse scan wrong: %+v", rev)
	}
}

func TestReadIsolatesAuthors(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	if _, err := a.Append(ctx, "7", strokes(7, "a")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := a.Append(ctx, "70", strokes(70, "x", "y")); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := a.Read("7", ReadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("author 7 sees foreign entries: %+v", got)
	}
}

func TestSequencesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	a := Open(db)
	if _, err := a.Append(context.Background(), "7", strokes(7, "a", "b")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("reopen pebble: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	a2 := Open(db2)
	seqs, err := a2.Append(context.Background(), "7", strokes(7, "c"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(seqs) != 1 || seqs[0] != 3 {
		t.Fatalf("sequence counter lost on reopen: %v", seqs)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	b := encodeRecord(42, []byte("payload"))
	ts, payload, ok := decodeRecord(b)
	if !ok || ts != 42 || string(payload) != "payload" {
		t.Fatalf("round trip: %d %q %v", ts, payload, ok)
	}
	// corruption is detected
	b[len(b)-1] ^= 0xff
	if _, _, ok := decodeRecord(b); ok {
		t.Fatalf("corrupt record accepted")
	}
}
