// Package runtime assembles storage and domain services for one server
// process: the Pebble archive, the Redis store, the directory, the fanout
// hub, the liveness tracker, and the invite service.
package runtime
