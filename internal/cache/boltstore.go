package cache

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore persists cache records in a single bbolt database file, one
// bucket per operation category. bbolt transactions give per-key atomicity;
// readers never observe a partial write.
type BoltStore struct {
	db      *bolt.DB
	nowFunc func() time.Time
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &BoltStore{db: db, nowFunc: time.Now}, nil
}

// Get returns the payload for key. Absent, malformed and expired records are
// reported as a miss.
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(Category(key)))
		if bucket == nil {
			return nil
		}
		buf := bucket.Get([]byte(key))
		if buf == nil {
			return nil
		}
		createdAt, ttl, payload, ok := decodeRecord(buf)
		if !ok || recordExpired(createdAt, ttl, s.nowFunc()) {
			return nil
		}
		// Bolt-owned memory is only valid inside the transaction.
		out = append([]byte(nil), payload...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

// Set stores the record inside a single write transaction.
func (s *BoltStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	record := encodeRecord(s.nowFunc(), ttl, payload)
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(Category(key)))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), record)
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
