package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL - время жизни кэшированной записи
const DefaultTTL = 5 * time.Minute

// Stats snapshot of the manager's accounting.
type Stats struct {
	LastReset     time.Time
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	TotalRequests uint64
	HitRate       float64
}

// Manager enforces the TTL policy over a Store and keeps hit/miss/
// invalidation accounting. ResetStats zeroes the counters without touching
// cached data; Invalidate drops data without touching the counters' history
// beyond its own increment. The two must never be conflated.
type Manager struct {
	store *Store
	now   func() time.Time
	ttl   time.Duration

	mu            sync.Mutex
	hits          uint64
	misses        uint64
	invalidations uint64
	lastReset     time.Time
}

// NewManager creates a cache manager with the given TTL
// (use DefaultTTL unless a test needs otherwise).
func NewManager(store *Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:     store,
		ttl:       ttl,
		now:       time.Now,
		lastReset: time.Now(),
	}
}

// Get returns the cached value when it is still fresh, recording a hit.
// A missing entry, an entry without a timestamp, and an expired entry all
// record a miss and return ok=false.
func (m *Manager) Get(key Key) (any, bool) {
	value, updatedAt, ok := m.store.Get(key)
	if !ok || m.expired(updatedAt) {
		m.mu.Lock()
		m.misses++
		m.mu.Unlock()
		return nil, false
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
	return value, true
}

// Put caches a value with a fresh timestamp.
func (m *Manager) Put(key Key, value any) {
	m.store.Put(key, value, m.now())
}

// IsValid reports whether the entry exists and has not expired,
// without touching the hit/miss counters.
func (m *Manager) IsValid(key Key) bool {
	_, updatedAt, ok := m.store.Get(key)
	return ok && !m.expired(updatedAt)
}

// Invalidate drops one entry and records the invalidation.
func (m *Manager) Invalidate(key Key) {
	m.store.Delete(key)

	m.mu.Lock()
	m.invalidations++
	m.mu.Unlock()
}

// RefreshUser drops every cached entry derived from the user across all
// types: both entries keyed by the bare userId and derived groupings keyed
// "userId:suffix".
func (m *Manager) RefreshUser(userID string) {
	if userID == "" {
		return
	}
	prefix := userID + ":"
	dropped := m.store.DeleteFunc(func(k Key) bool {
		return k.Ref == userID || strings.HasPrefix(k.Ref, prefix)
	})

	m.mu.Lock()
	m.invalidations += uint64(dropped)
	m.mu.Unlock()
}

// Stats returns the counters plus derived totals.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(m.hits) / float64(total)
	}

	return Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		Invalidations: m.invalidations,
		TotalRequests: total,
		HitRate:       hitRate,
		LastReset:     m.lastReset,
	}
}

// ResetStats zeroes the counters. Cached data is left untouched: resetting
// accounting must not cause repository reloads.
func (m *Manager) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits = 0
	m.misses = 0
	m.invalidations = 0
	m.lastReset = m.now()
}

func (m *Manager) expired(updatedAt time.Time) bool {
	return m.now().Sub(updatedAt) >= m.ttl
}
