// Package fanout is the in-process push hub. The ingest consumer publishes
// resolved keystrokes to a team leader's "keystrokes" topic and inactivity
// notifications to "notifications"; websocket sessions subscribe per user
// with optional topic lists and CEL filters.
//
// Delivery is at-most-once by design. The hub retains nothing: a user with
// no open subscription simply misses traffic, and a subscriber that cannot
// keep up loses messages rather than stalling the publisher.
//
// Example:
//
//	hub := fanout.NewHub(256, logger)
//	sub, _ := hub.Subscribe("lead@ua.pt", []string{"keystrokes"}, `json.keyValue == "a"`)
//	defer sub.Close()
//	hub.Publish("lead@ua.pt", "keystrokes", payload)
package fanout
