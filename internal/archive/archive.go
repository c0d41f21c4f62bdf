package archive

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/ddorjelama/KeyUsageProfiler/internal/keystroke"
	pebblestore "github.com/ddorjelama/KeyUsageProfiler/internal/storage/pebble"
)

// Entry is one archived keystroke: its per-author sequence, the archival
// timestamp in Unix milliseconds, and the serialized event.
type Entry struct {
	Seq     uint64
	TS      int64
	Payload []byte
}

// ReadOptions selects a slice of an author's history.
type ReadOptions struct {
	Start   uint64 // if zero, begin from the first entry
	Limit   int
	Reverse bool
}

// Archive is the durable per-author keystroke log over Pebble. Appends for
// one author are serialized and assigned dense sequence numbers; entries
// sort by sequence, so history reads are a single range scan.
type Archive struct {
	db *pebblestore.DB

	mu      sync.Mutex
	lastSeq map[string]uint64

	// now is the archival clock, swappable in tests.
	now func() int64
}

// Open initializes an Archive over the database. Sequence counters load
// lazily from per-author metadata.
func Open(db *pebblestore.DB) *Archive {
	return &Archive{db: db, lastSeq: make(map[string]uint64), now: func() int64 { return time.Now().UnixMilli() }}
}

func (a *Archive) loadLastSeqLocked(authorID string) uint64 {
	if seq, ok := a.lastSeq[authorID]; ok {
		return seq
	}
	var seq uint64
	if meta, err := a.db.Get(keyMeta(authorID)); err == nil && len(meta) >= 8 {
		seq = binary.BigEndian.Uint64(meta[:8])
	}
	a.lastSeq[authorID] = seq
	return seq
}

// Append stores the events as a single atomic batch and returns the
// assigned sequence numbers. A drained flush batch either lands whole or
// not at all.
func (a *Archive) Append(ctx context.Context, authorID string, events []keystroke.Event) ([]uint64, error) {
	if len(events) == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	seq := a.loadLastSeqLocked(authorID)
	ts := a.now()

	b := a.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(events))
	for i, ev := range events {
		payload, err := ev.Encode()
		if err != nil {
			return nil, err
		}
		seq++
		if err := b.Set(keyEntry(authorID, seq), encodeRecord(ts, payload), nil); err != nil {
			return nil, err
		}
		seqs[i] = seq
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := b.Set(keyMeta(authorID), meta[:], nil); err != nil {
		return nil, err
	}
	if err := a.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	a.lastSeq[authorID] = seq
	return seqs, nil
}

// Read returns up to Limit entries for the author starting at Start
// (inclusive). Reverse scans descending from the newest entry. Corrupt
// records are skipped.
func (a *Archive) Read(authorID string, opts ReadOptions) ([]Entry, error) {
	low := keyEntry(authorID, 0)
	hi := keyEntry(authorID, ^uint64(0))
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	entries := make([]Entry, 0, opts.Limit)
	seqAt := len(keyEntry(authorID, 0)) - 8

	advance := iter.Next
	if opts.Reverse {
		advance = iter.Prev
		if opts.Start == 0 {
			iter.Last()
		} else {
			if !iter.SeekLT(keyEntry(authorID, opts.Start+1)) {
				return entries, nil
			}
		}
	} else if opts.Start == 0 {
		iter.First()
	} else {
		iter.SeekGE(keyEntry(authorID, opts.Start))
	}

	for iter.Valid() && (opts.Limit == 0 || len(entries) < opts.Limit) {
		seq := binary.BigEndian.Uint64(iter.Key()[seqAt:])
		if ts, payload, ok := decodeRecord(iter.Value()); ok {
			entries = append(entries, Entry{Seq: seq, TS: ts, Payload: payload})
		}
		if !advance() {
			break
		}
	}
	return entries, nil
}

// LastSeq reports the highest assigned sequence for the author, zero when
// nothing is archived.
func (a *Archive) LastSeq(authorID string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLastSeqLocked(authorID)
}
