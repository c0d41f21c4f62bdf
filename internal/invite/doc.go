// Package invite manages short-lived team join tokens. Tokens live in the
// invitetoken: namespace of the Redis store and lapse by TTL; no revocation
// path exists beyond issuing a replacement or waiting out the window.
package invite
