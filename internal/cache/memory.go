package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const sweepEvery = 256

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
// Entries expire lazily on access and in periodic sweeps.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]memoryEntry
	writes int
	now    func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the time source; tests use it to move past TTLs.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// lookup returns the live entry for key; callers hold mu.
func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := s.items[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.items, key)
		return memoryEntry{}, false
	}
	return e, true
}

// store writes key; callers hold mu.
func (s *MemoryStore) store(key string, value []byte, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.items[key] = memoryEntry{value: value, expires: expires}

	s.writes++
	if s.writes%sweepEvery == 0 {
		now := s.now()
		for k, e := range s.items {
			if !e.expires.IsZero() && !now.Before(e.expires) {
				delete(s.items, k)
			}
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.store(key, v, ttl)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(key)
	return ok, nil
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.store(key, v, ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		s.store(key, []byte("1"), ttl)
		return 1, nil
	}
	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	// keep the original expiry, like INCR on a key that already has a TTL
	e.value = []byte(strconv.FormatInt(n, 10))
	s.items[key] = e
	return n, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
