// Package liveness tracks which authors are actively typing. Every accepted
// keystroke re-arms a marker key with a sliding TTL and appends the event to
// the author's buffer; the marker's natural expiry is what downgrades an
// author to inactive (see the expiry reactor). Buffers are drained in bulk by
// the periodic flush job.
package liveness
