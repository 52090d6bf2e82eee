package cache

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// FSStore persists one file per cache key under a storage root, grouped into
// a subdirectory per operation category. Writes go to a temp file in the
// target directory followed by a rename, so concurrent readers of the same
// key always observe a complete record.
type FSStore struct {
	root    string
	nowFunc func() time.Time
}

// NewFSStore creates the storage root if needed and returns the store.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root, nowFunc: time.Now}, nil
}

// path maps an encoded key to its file. The full key is query-escaped into
// the filename, which keeps the mapping injective (the category subdirectory
// is operability-only).
func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, Category(key), url.QueryEscape(key)+".cache")
}

// Get returns the payload for key. Absent, truncated, unreadable and expired
// files are all reported as a miss; expired files are removed best-effort.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	createdAt, ttl, payload, ok := decodeRecord(buf)
	if !ok {
		// Truncated or foreign file: treat as a miss.
		return nil, false, nil
	}
	if recordExpired(createdAt, ttl, s.nowFunc()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return payload, true, nil
}

// Set persists the record atomically via write-to-temp-then-rename.
func (s *FSStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	path := s.path(key)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// The temp file must live in the target directory: rename is only atomic
	// within a filesystem.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	record := encodeRecord(s.nowFunc(), ttl, payload)
	if _, err := tmp.Write(record); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() error {
	return nil
}
