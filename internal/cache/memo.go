package cache

import (
	"bytes"
	"container/list"
	"sync"
	"time"
)

// memoEntry is one resident entry in the memo tier.
type memoEntry struct {
	key       string
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry's TTL has elapsed at now. A zero or
// negative TTL means the entry lives for the process lifetime.
func (e *memoEntry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// Memo is the in-process cache tier: a capacity-bounded LRU mapping from key
// to payload with per-entry TTL. A single mutex guards both the map and the
// recency list, so a get-then-promote or put-then-evict is atomic to other
// callers. Payload bytes are copied on the way in and out.
type Memo struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lru      *list.List // front = most recently used

	nowFunc func() time.Time // for testing; defaults to time.Now
}

// DefaultMemoCapacity is used when NewMemo is given a non-positive capacity.
const DefaultMemoCapacity = 512

// NewMemo creates a Memo bounded to capacity entries.
func NewMemo(capacity int) *Memo {
	if capacity <= 0 {
		capacity = DefaultMemoCapacity
	}
	return &Memo{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		nowFunc:  time.Now,
	}
}

// Get returns the payload stored under key if present and unexpired, and
// promotes the entry to most recently used. Expired entries are removed
// lazily here and reported as misses.
func (m *Memo) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	element, ok := m.items[key]
	if !ok {
		return nil, false
	}

	entry := element.Value.(*memoEntry)
	if entry.expired(m.nowFunc()) {
		m.removeLocked(element)
		return nil, false
	}

	m.lru.MoveToFront(element)
	return bytes.Clone(entry.payload), true
}

// Put inserts or replaces the entry for key, promoting it to most recently
// used. When the insert would exceed the capacity bound, the least recently
// used entry is evicted first.
func (m *Memo) Put(key string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()

	if element, ok := m.items[key]; ok {
		entry := element.Value.(*memoEntry)
		entry.payload = bytes.Clone(payload)
		entry.createdAt = now
		entry.ttl = ttl
		m.lru.MoveToFront(element)
		return
	}

	element := m.lru.PushFront(&memoEntry{
		key:       key,
		payload:   bytes.Clone(payload),
		createdAt: now,
		ttl:       ttl,
	})
	m.items[key] = element

	if m.lru.Len() > m.capacity {
		if oldest := m.lru.Back(); oldest != nil {
			m.removeLocked(oldest)
		}
	}
}

// EvictExpired removes every entry whose TTL has elapsed. It is an optional
// maintenance hook; Get already expires entries lazily.
func (m *Memo) EvictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	var next *list.Element
	for element := m.lru.Front(); element != nil; element = next {
		next = element.Next()
		if element.Value.(*memoEntry).expired(now) {
			m.removeLocked(element)
		}
	}
}

// Len returns the number of resident entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// removeLocked removes an element from both structures. Caller holds m.mu.
func (m *Memo) removeLocked(element *list.Element) {
	entry := m.lru.Remove(element).(*memoEntry)
	delete(m.items, entry.key)
}
