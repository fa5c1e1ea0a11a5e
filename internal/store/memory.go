package store

import (
	"context"
	"sync"
	"time"
)

// memEntry is one stored value with its expiry instant (zero = no expiry).
type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// memStore implements Store in process memory. It exists for tests and for
// throwaway single-process runs; nothing persists across restarts.
type memStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	locks   map[string]time.Time
}

// NewMemory creates an in-memory store.
func NewMemory() Store {
	return &memStore{
		entries: make(map[string]memEntry),
		locks:   make(map[string]time.Time),
	}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(time.Now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *memStore) AcquireLock(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, held := s.locks[key]; held && expiry.After(now) {
		return nil, ErrLockHeld
	}
	s.locks[key] = now.Add(ttl)

	unlock := func(context.Context) error {
		s.mu.Lock()
		delete(s.locks, key)
		s.mu.Unlock()
		return nil
	}
	return unlock, nil
}

func (s *memStore) Close() error {
	return nil
}
