package archive

import "encoding/binary"

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - au/{authorId}/m
// - au/{authorId}/e/{seq_be8}

var (
	authorPrefix = []byte("au/")
	metaSuffix   = []byte("/m")
	entrySeg     = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyMeta builds the per-author metadata key.
func keyMeta(authorID string) []byte {
	k := make([]byte, 0, len(authorID)+8)
	k = append(k, authorPrefix...)
	k = append(k, authorID...)
	k = append(k, metaSuffix...)
	return k
}

// keyEntry builds the entry key with a big-endian sequence for proper ordering.
func keyEntry(authorID string, seq uint64) []byte {
	k := make([]byte, 0, len(authorID)+16)
	k = append(k, authorPrefix...)
	k = append(k, authorID...)
	k = append(k, entrySeg...)
	k = appendBE8(k, seq)
	return k
}
