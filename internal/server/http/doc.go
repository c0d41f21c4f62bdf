// Package httpserver is the outward surface of the pipeline: health, the
// websocket push endpoint leaders attach to, invite issuance and
// redemption, and archived keystroke history.
package httpserver
