// Package flush moves buffered keystrokes from Redis into the durable
// archive. Each cycle snapshots the active author set and drains each
// buffer in full; events arriving mid-cycle wait for the next one.
package flush
