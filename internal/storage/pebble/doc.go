// Package pebblestore wraps Pebble with the fsync policy and small helpers
// used by the keystroke archive. It is the durable half of the storage layer;
// transient liveness state lives in the Redis store.
package pebblestore
