package keystroke

import (
	"encoding/json"
	"errors"

	"github.com/ddorjelama/KeyUsageProfiler/internal/directory"
)

// Event is one keystroke as produced by a typing client. Inbound events carry
// only the author id; the ingest path replaces Author with the fully resolved
// directory record before fan-out. Ordering within one author's stream is
// significant and preserved end to end.
type Event struct {
	Author     directory.Author `json:"author"`
	KeyValue   string           `json:"keyValue"`
	IsKeyPress bool             `json:"isKeyPress"`
	// TS is the client timestamp in Unix milliseconds.
	TS int64 `json:"ts"`
}

// ErrMalformed marks payloads that do not decode to a usable event.
var ErrMalformed = errors.New("keystroke: malformed event payload")

// Decode parses a serialized event. Payloads without an author id are
// malformed: there is nothing to attribute them to.
func Decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, ErrMalformed
	}
	if ev.Author.ID == 0 {
		return Event{}, ErrMalformed
	}
	return ev, nil
}

// Encode serializes the event for the buffer and the push channel.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
