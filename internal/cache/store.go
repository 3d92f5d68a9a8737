package cache

import (
	"sync"
	"time"
)

// Store is the in-memory cache storage: a map of cached records plus a
// parallel map of last-refresh timestamps. It holds no TTL policy and no
// statistics; that is the Manager's job. All mutation goes through these
// methods, never through direct map access.
//
// The store is an explicit instance owned by the facade, created at startup
// and discarded at logout. No module-level state.
type Store struct {
	mu      sync.RWMutex
	values  map[Key]any
	updated map[Key]time.Time
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		values:  make(map[Key]any),
		updated: make(map[Key]time.Time),
	}
}

// Get returns the cached value and its last update time.
// ok is false when the key was never cached.
func (s *Store) Get(key Key) (value any, updatedAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok = s.values[key]
	if !ok {
		return nil, time.Time{}, false
	}
	// Запись без timestamp считается невалидной
	updatedAt, ok = s.updated[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return value, updatedAt, true
}

// Put stores a value with the given refresh timestamp.
func (s *Store) Put(key Key, value any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.updated[key] = now
}

// Delete drops one entry, reporting whether it was present.
func (s *Store) Delete(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.values[key]
	delete(s.values, key)
	delete(s.updated, key)
	return ok
}

// DeleteFunc drops every entry whose key matches, returning the count.
func (s *Store) DeleteFunc(match func(Key) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for key := range s.values {
		if match(key) {
			delete(s.values, key)
			delete(s.updated, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
