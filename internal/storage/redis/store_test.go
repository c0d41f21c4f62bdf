package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := Open(context.Background(), Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func TestSetOverwritesValueAndTTL(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()
	if err := st.Set(ctx, "ttl:7", "7", 29*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(20 * time.Second)
	// re-arm resets the window
	if err := st.Set(ctx, "ttl:7", "7", 29*time.Second); err != nil {
		t.Fatalf("re-arm: %v", err)
	}
	mr.FastForward(20 * time.Second)
	if _, ok, err := st.Get(ctx, "ttl:7"); err != nil || !ok {
		t.Fatalf("marker should still be present: ok=%v err=%v", ok, err)
	}
	mr.FastForward(10 * time.Second)
	if _, ok, _ := st.Get(ctx, "ttl:7"); ok {
		t.Fatalf("marker should have expired")
	}
}

func TestAppendPopAllOrdering(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	for _, v := range []string{"a", "b", "c"} {
		if err := st.Append(ctx, "7", []byte(v)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := st.PopAll(ctx, "7")
	if err != nil {
		t.Fatalf("popall: %v", err)
	}
	if len(got) != 3 || string(got[0]) != "a" || string(got[2]) != "c" {
		t.Fatalf("order lost: %q", got)
	}
	// second drain with no appends is empty
	got, err = st.PopAll(ctx, "7")
	if err != nil {
		t.Fatalf("popall2: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty drain, got %q", got)
	}
	// draining an absent list is not an error
	if _, err := st.PopAll(ctx, "nosuch"); err != nil {
		t.Fatalf("popall absent: %v", err)
	}
}

// miniredis never emits keyspace notifications on its own (FastForward
// expires keys silently), so these tests simulate the server-side publish on
// the exact channel a real Redis uses for expired events.

func publishExpired(t *testing.T, mr *miniredis.Miniredis, channel, key string) {
	t.Helper()
	// PSUBSCRIBE registration is asynchronous; retry until the subscriber
	// is attached.
	deadline := time.Now().Add(2 * time.Second)
	for mr.Publish(channel, key) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never registered on %s", channel)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscribeExpiredDeliversKeyNames(t *testing.T) {
	st, mr := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := st.SubscribeExpired(ctx)
	defer sub.Close()

	publishExpired(t, mr, "__keyevent@0__:expired", "ttl:7")

	select {
	case key := <-sub.Keys():
		if key != "ttl:7" {
			t.Fatalf("wrong key delivered: %q", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no expired key delivered")
	}
}

func TestSubscribeExpiredUsesConfiguredDB(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := Open(context.Background(), Options{Addr: mr.Addr(), DB: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := st.SubscribeExpired(ctx)
	defer sub.Close()

	publishExpired(t, mr, "__keyevent@1__:expired", "ttl:7")
	select {
	case key := <-sub.Keys():
		if key != "ttl:7" {
			t.Fatalf("wrong key delivered: %q", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no expired key delivered on db 1 channel")
	}

	// another database's expiries are invisible
	mr.Publish("__keyevent@0__:expired", "ttl:9")
	select {
	case key := <-sub.Keys():
		t.Fatalf("foreign db key leaked: %q", key)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeExpiredClosesOnCancel(t *testing.T) {
	st, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := st.SubscribeExpired(ctx)
	defer sub.Close()
	cancel()

	select {
	case _, ok := <-sub.Keys():
		if ok {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("keys channel not closed on cancel")
	}
}

func TestScanValuesReturnsMarkerValues(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if err := st.Set(ctx, "ttl:"+id, id, time.Minute); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	// unrelated namespaces are not picked up
	if err := st.Set(ctx, "invitetoken:9", "tok", time.Minute); err != nil {
		t.Fatalf("set invite: %v", err)
	}
	vals, err := st.ScanValues(ctx, "ttl:")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("want 3 markers, got %v", vals)
	}
	seen := map[string]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	for _, id := range []string{"1", "2", "3"} {
		if !seen[id] {
			t.Fatalf("missing %s in %v", id, vals)
		}
	}
}
