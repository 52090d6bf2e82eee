package cache

import (
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Integration test; requires a running Redis. Enable with e.g.
//
//	REDIS_ADDR=localhost:6379 go test ./internal/cache/
func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	s, err := NewRedisStore(t.Context(), addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_SetGet(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := t.Context()

	key := Encode("races", "2024", t.Name())
	if err := s.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
}

func TestRedisStore_MissOnAbsentKey(t *testing.T) {
	s := newRedisTestStore(t)

	_, ok, err := s.Get(t.Context(), Encode("races", "absent", t.Name()))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := t.Context()

	key := Encode("sessions", "2024", t.Name())
	if err := s.Set(ctx, key, []byte("short-lived"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, key); ok {
		t.Fatal("entry should have expired")
	}
}

func TestRedisStore_UnreachableFailsSoft(t *testing.T) {
	// A store whose client points at a closed port must degrade to misses
	// rather than surface errors. This needs no real Redis.
	dead := &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}
	t.Cleanup(func() { _ = dead.Close() })

	if err := dead.Set(t.Context(), Encode("races", "2024"), []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set must fail soft, got %v", err)
	}
	if _, ok, err := dead.Get(t.Context(), Encode("races", "2024")); ok || err != nil {
		t.Fatalf("Get must report a soft miss, got ok=%v err=%v", ok, err)
	}
}
