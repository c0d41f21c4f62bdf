// Package ingest is the entry point of the keystroke pipeline. A Kafka
// consumer group pulls raw events off the strokes topic; each event is
// validated, recorded against the author's liveness marker and buffer, then
// resolved and pushed to the team leader's live stream.
package ingest
