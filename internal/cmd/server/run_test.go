package serverrun

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	cfgpkg "github.com/ddorjelama/KeyUsageProfiler/internal/config"
)

func TestRunStartsAndStopsCleanly(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Redis.Addr = mr.Addr()
	// No broker is listening; the consumer retries until shutdown.
	cfg.Kafka.Brokers = []string{"127.0.0.1:1"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, Options{Config: cfg}) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not shut down")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Redis.Addr = ""
	if err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}
