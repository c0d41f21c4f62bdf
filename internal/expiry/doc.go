// Package expiry reacts to liveness marker expiries. When an author's
// marker lapses the reactor downgrades their status to INACTIVE and, if the
// author belongs to a team and is not its leader, notifies the leader.
package expiry
