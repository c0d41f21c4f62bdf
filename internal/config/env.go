package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays KUP_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("KUP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("KUP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("KUP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KUP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KUP_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("KUP_KAFKA_BROKERS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Kafka.Brokers = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, p)
			}
		}
	}
	if v := os.Getenv("KUP_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("KUP_KAFKA_GROUP_ID"); v != "" {
		cfg.Kafka.GroupID = v
	}
	if v := os.Getenv("KUP_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("KUP_LIVENESS_WINDOW_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LivenessWindowSec = n
		}
	}
	if v := os.Getenv("KUP_FLUSH_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FlushIntervalSec = n
		}
	}
	if v := os.Getenv("KUP_INVITE_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InviteTTLSec = n
		}
	}
	if v := os.Getenv("KUP_SUBSCRIBER_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SubscriberBuffer = n
		}
	}
	if v := os.Getenv("KUP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("KUP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}
