// Package serverrun boots the server process: it assembles the runtime,
// starts the ingest, expiry, flush, and HTTP loops, and handles graceful
// shutdown.
package serverrun
