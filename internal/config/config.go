package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir hosts the Pebble-backed keystroke archive.
	DataDir string `json:"dataDir"`
	// HTTPAddr is the listen address for the API and websocket push endpoint.
	HTTPAddr string `json:"httpAddr"`

	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	Postgres PostgresConfig `json:"postgres"`

	// LivenessWindowSec is the sliding inactivity window W, in seconds. A
	// marker re-armed on every accepted keystroke expires this long after the
	// author's last event.
	LivenessWindowSec int `json:"livenessWindowSec"`
	// FlushIntervalSec is the cadence of the periodic buffer flush.
	FlushIntervalSec int `json:"flushIntervalSec"`
	// InviteTTLSec is the lifetime of team invite tokens.
	InviteTTLSec int `json:"inviteTTLSec"`
	// SubscriberBuffer is the per-subscriber push channel capacity; events to
	// a slower consumer are dropped once it is full.
	SubscriberBuffer int `json:"subscriberBuffer"`

	// LogLevel is the minimum log level (debug|info|warn|error).
	LogLevel string `json:"logLevel"`
	// LogFormat selects the log encoding (text|json).
	LogFormat string `json:"logFormat"`
}

// RedisConfig addresses the transient event store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig addresses the inbound keystroke topic.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	GroupID string   `json:"groupId"`
}

// PostgresConfig addresses the user/team directory. An empty DSN selects the
// in-memory directory (dev mode).
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"127.0.0.1:9092"},
			Topic:   "strokes",
			GroupID: "keyprofiler",
		},
		LivenessWindowSec: 29,
		FlushIntervalSec:  5,
		InviteTTLSec:      900,
		SubscriberBuffer:  256,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LivenessWindow returns the inactivity window as a duration.
func (c Config) LivenessWindow() time.Duration {
	return time.Duration(c.LivenessWindowSec) * time.Second
}

// FlushInterval returns the flush cadence as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSec) * time.Second
}

// InviteTTL returns the invite token lifetime as a duration.
func (c Config) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLSec) * time.Second
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.LivenessWindowSec <= 0 {
		return fmt.Errorf("config: livenessWindowSec must be positive, got %d", c.LivenessWindowSec)
	}
	if c.FlushIntervalSec <= 0 {
		return fmt.Errorf("config: flushIntervalSec must be positive, got %d", c.FlushIntervalSec)
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka topic is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: at least one kafka broker is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis addr is required")
	}
	return nil
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
