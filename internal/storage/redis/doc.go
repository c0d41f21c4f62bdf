// Package redisstore is the transient event store: liveness markers with
// TTLs, per-author keystroke buffers as lists, invite tokens, and key-expiry
// notifications. All state here is disposable; the durable record of
// keystrokes is the archive.
//
// Key namespaces (shared with the original deployment):
//   - ttl:{authorId}         -> authorId, expiry = liveness window
//   - {authorId}             -> list of serialized keystroke events
//   - invitetoken:{teamId}   -> opaque invite secret, expiry 900s
package redisstore
