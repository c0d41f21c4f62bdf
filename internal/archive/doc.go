// Package archive is the durable home of flushed keystrokes. Each author
// owns an append-only Pebble log keyed au/{authorId}/e/{seq}; the flush job
// drains Redis buffers into it, and the history endpoint reads ranges back
// out.
package archive
