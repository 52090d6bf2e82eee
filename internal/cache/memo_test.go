package cache

import (
	"fmt"
	"testing"
	"time"
)

// memoAt returns a Memo whose clock the test controls.
func memoAt(capacity int) (*Memo, *time.Time) {
	m := NewMemo(capacity)
	now := time.Now()
	m.nowFunc = func() time.Time { return now }
	return m, &now
}

func TestMemo_GetPut(t *testing.T) {
	m := NewMemo(4)

	if _, ok := m.Get("k1"); ok {
		t.Fatal("expected miss on empty memo")
	}

	m.Put("k1", []byte("v1"), time.Minute)
	val, ok := m.Get("k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(val) != "v1" {
		t.Fatalf("got %q, want %q", val, "v1")
	}
}

func TestMemo_CapacityBound(t *testing.T) {
	const capacity = 8
	m := NewMemo(capacity)

	for i := range capacity + 1 {
		m.Put(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}

	if got := m.Len(); got != capacity {
		t.Fatalf("expected exactly %d resident entries, got %d", capacity, got)
	}
	// k0 was the least recently used and must be gone; the rest survive.
	if _, ok := m.Get("k0"); ok {
		t.Fatal("expected k0 evicted")
	}
	if _, ok := m.Get("k1"); !ok {
		t.Fatal("expected k1 resident")
	}
}

func TestMemo_GetPromotesEntry(t *testing.T) {
	m := NewMemo(2)

	m.Put("a", []byte("1"), time.Minute)
	m.Put("b", []byte("2"), time.Minute)

	// Touch a so b becomes the LRU entry.
	if _, ok := m.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	m.Put("c", []byte("3"), time.Minute)

	if _, ok := m.Get("a"); !ok {
		t.Fatal("a was promoted by Get and must survive")
	}
	if _, ok := m.Get("b"); ok {
		t.Fatal("b was the LRU entry and must be evicted")
	}
	if _, ok := m.Get("c"); !ok {
		t.Fatal("expected hit for c")
	}
}

func TestMemo_PutPromotesExistingEntry(t *testing.T) {
	m := NewMemo(2)

	m.Put("a", []byte("1"), time.Minute)
	m.Put("b", []byte("2"), time.Minute)
	m.Put("a", []byte("1b"), time.Minute) // rewrite promotes a

	m.Put("c", []byte("3"), time.Minute)

	if val, ok := m.Get("a"); !ok || string(val) != "1b" {
		t.Fatalf("expected updated a resident, got %q ok=%v", val, ok)
	}
	if _, ok := m.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
}

func TestMemo_TTLExpiry(t *testing.T) {
	m, now := memoAt(4)

	m.Put("k", []byte("v"), time.Second)

	if _, ok := m.Get("k"); !ok {
		t.Fatal("expected hit before TTL")
	}

	*now = now.Add(time.Second + time.Millisecond)

	if _, ok := m.Get("k"); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
	if got := m.Len(); got != 0 {
		t.Fatalf("expired entry must be removed lazily, %d resident", got)
	}
}

func TestMemo_ZeroTTLNeverExpires(t *testing.T) {
	m, now := memoAt(4)

	m.Put("k", []byte("v"), 0)
	*now = now.Add(1000 * time.Hour)

	if _, ok := m.Get("k"); !ok {
		t.Fatal("zero-TTL entry must live for the process lifetime")
	}
}

func TestMemo_EvictExpired(t *testing.T) {
	m, now := memoAt(8)

	m.Put("short", []byte("v"), time.Second)
	m.Put("long", []byte("v"), time.Hour)

	*now = now.Add(2 * time.Second)
	m.EvictExpired()

	if got := m.Len(); got != 1 {
		t.Fatalf("expected 1 resident entry after sweep, got %d", got)
	}
	if _, ok := m.Get("long"); !ok {
		t.Fatal("unexpired entry must survive the sweep")
	}
}

func TestMemo_CopiesPayload(t *testing.T) {
	m := NewMemo(4)

	src := []byte("original")
	m.Put("k", src, time.Minute)
	src[0] = 'X'

	val, ok := m.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(val) != "original" {
		t.Fatalf("stored payload was aliased by the caller: %q", val)
	}

	val[0] = 'Y'
	again, _ := m.Get("k")
	if string(again) != "original" {
		t.Fatalf("returned payload aliases the stored bytes: %q", again)
	}
}
