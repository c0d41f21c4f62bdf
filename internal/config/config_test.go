package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.LivenessWindowSec != 29 {
		t.Fatalf("want 29s window, got %d", cfg.LivenessWindowSec)
	}
	if cfg.InviteTTLSec != 900 {
		t.Fatalf("want 900s invite ttl, got %d", cfg.InviteTTLSec)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("log defaults lost: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kup.json")
	body := `{"httpAddr":":9999","kafka":{"brokers":["k1:9092"],"topic":"strokes","groupId":"g"},"livenessWindowSec":10}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("httpAddr not applied: %q", cfg.HTTPAddr)
	}
	if cfg.LivenessWindowSec != 10 {
		t.Fatalf("window not applied: %d", cfg.LivenessWindowSec)
	}
	// untouched fields keep defaults
	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Fatalf("redis default lost: %q", cfg.Redis.Addr)
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("KUP_REDIS_ADDR", "redis:6380")
	t.Setenv("KUP_KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("KUP_FLUSH_INTERVAL_SEC", "2")
	t.Setenv("KUP_LOG_LEVEL", "debug")
	t.Setenv("KUP_LOG_FORMAT", "json")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("redis addr: %q", cfg.Redis.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.FlushIntervalSec != 2 {
		t.Fatalf("flush interval: %d", cfg.FlushIntervalSec)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("log overlay lost: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestValidateRejectsZeroWindow(t *testing.T) {
	cfg := Default()
	cfg.LivenessWindowSec = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
