package cache

import (
	"context"
	"encoding/binary"
	"time"
)

// Store is the persistent cache tier: a durable key→record mapping surviving
// process restarts. Implementations must be safe for concurrent use and
// atomic per key: a concurrent reader observes either the old complete
// record or the new one, never a partial write.
//
// The persistent tier is strictly an optimization: implementations report
// absent, expired and unreadable records alike as a miss (ok == false), and
// reserve the error return for infrastructure faults the orchestrator logs
// and then treats as a miss anyway.
type Store interface {
	// Get returns the payload stored under key if present and unexpired.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Set durably stores payload under key, stamping it with the current
	// time and ttl. It overwrites any prior record for the same key.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close releases underlying resources.
	Close() error
}

// recordHeaderLen is the fixed prefix of every persisted record: the creation
// timestamp (unix nanoseconds) and the TTL (nanoseconds), both big endian.
// The TTL is attached at creation time, so later policy changes never affect
// records already on disk.
const recordHeaderLen = 16

// encodeRecord serializes a cache record.
func encodeRecord(createdAt time.Time, ttl time.Duration, payload []byte) []byte {
	buf := make([]byte, recordHeaderLen+len(payload))
	binary.BigEndian.PutUint64(buf[:8], uint64(createdAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(ttl))
	copy(buf[recordHeaderLen:], payload)
	return buf
}

// decodeRecord parses a persisted record. ok is false when the buffer is too
// short to contain a header (a truncated or foreign file).
func decodeRecord(buf []byte) (createdAt time.Time, ttl time.Duration, payload []byte, ok bool) {
	if len(buf) < recordHeaderLen {
		return time.Time{}, 0, nil, false
	}
	createdAt = time.Unix(0, int64(binary.BigEndian.Uint64(buf[:8])))
	ttl = time.Duration(binary.BigEndian.Uint64(buf[8:16]))
	payload = buf[recordHeaderLen:]
	return createdAt, ttl, payload, true
}

// recordExpired reports whether a record with the given stamps is past its
// TTL at now. A zero or negative TTL means the record never expires.
func recordExpired(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(createdAt) > ttl
}
