package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisNamespace prefixes every key so the store can share a database.
const redisNamespace = "apexview:"

// RedisStore is a Redis-backed persistent tier. All operations fail soft: if
// Redis is unavailable, Get reports a miss and Set silently discards the
// write instead of surfacing the error to the caller. Expiry is delegated to
// Redis via the SET expiration.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates the client and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisStore{rdb: rdb}, nil
}

// Get retrieves the payload for key. Returns a miss when the key is absent
// or when Redis is unreachable.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, redisNamespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		// Fail soft: treat connection errors as a miss.
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores the payload under key with the given TTL. A non-positive TTL
// means no automatic expiration. Errors are silently discarded (fail soft).
func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	_ = s.rdb.Set(ctx, redisNamespace+key, payload, ttl).Err()
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
