package id

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit identifier: [8 bytes ms timestamp][8 bytes sequence],
// big-endian, so byte order equals creation order.
type ID [16]byte

// String returns the ID as 32 hex digits. Lexical order of the strings
// matches creation order.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator hands out process-unique, monotonically increasing IDs.
type Generator struct {
	mu     sync.Mutex
	lastMs int64
	seq    uint64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns a fresh ID. A clock running backwards reuses the last
// observed millisecond and keeps incrementing the sequence; a sequence
// overflow within one millisecond waits that millisecond out.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	switch {
	case ms != g.lastMs:
		g.seq = 0
	case g.seq == math.MaxUint64:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = NowMs()
		}
		g.seq = 0
	default:
		g.seq++
	}
	g.lastMs = ms

	var id ID
	binary.BigEndian.PutUint64(id[0:8], uint64(ms))
	binary.BigEndian.PutUint64(id[8:16], g.seq)
	return id
}
