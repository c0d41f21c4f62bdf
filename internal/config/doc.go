// Package config loads the process configuration from an optional JSON file
// overlaid with KUP_* environment variables, and carries the tunables for the
// liveness window, flush cadence, and the Redis/Kafka/Postgres endpoints.
package config
