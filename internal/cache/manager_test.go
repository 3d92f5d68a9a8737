package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/models"
)

// newTestManager возвращает менеджер с управляемыми часами
func newTestManager(ttl time.Duration) (*Manager, *time.Time) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewStore(), ttl)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestManager_GetPut(t *testing.T) {
	m, _ := newTestManager(DefaultTTL)
	key := Key{Type: models.DataTypePassport, Ref: "user-1"}

	_, ok := m.Get(key)
	assert.False(t, ok, "empty cache must miss")

	m.Put(key, "value-1")

	got, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "value-1", got)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(2), stats.TotalRequests)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestManager_TTLExpiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantHit bool
	}{
		{
			name:    "fresh entry",
			advance: time.Minute,
			wantHit: true,
		},
		{
			name:    "just under ttl",
			advance: 5*time.Minute - time.Second,
			wantHit: true,
		},
		{
			name:    "exactly at ttl",
			advance: 5 * time.Minute,
			wantHit: false,
		},
		{
			name:    "well past ttl",
			advance: time.Hour,
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock := newTestManager(5 * time.Minute)
			key := Key{Type: models.DataTypeTravelInfo, Ref: "user-1:japan"}
			m.Put(key, 42)

			*clock = clock.Add(tt.advance)

			_, ok := m.Get(key)
			assert.Equal(t, tt.wantHit, ok)
			assert.Equal(t, tt.wantHit, m.IsValid(key))
		})
	}
}

func TestManager_IsValidDoesNotCount(t *testing.T) {
	m, _ := newTestManager(DefaultTTL)
	key := Key{Type: models.DataTypePersonalInfo, Ref: "user-1"}
	m.Put(key, "v")

	assert.True(t, m.IsValid(key))
	assert.False(t, m.IsValid(Key{Type: models.DataTypePersonalInfo, Ref: "other"}))

	stats := m.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
}

func TestManager_Invalidate(t *testing.T) {
	m, _ := newTestManager(DefaultTTL)
	key := Key{Type: models.DataTypeFundItems, Ref: "user-1"}
	m.Put(key, []string{"cash"})

	m.Invalidate(key)

	_, ok := m.Get(key)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), m.Stats().Invalidations)
}

func TestManager_RefreshUser(t *testing.T) {
	m, _ := newTestManager(DefaultTTL)

	keep := Key{Type: models.DataTypePassport, Ref: "user-2"}
	keepLike := Key{Type: models.DataTypePassport, Ref: "user-10"}
	m.Put(Key{Type: models.DataTypePassport, Ref: "user-1"}, "a")
	m.Put(Key{Type: models.DataTypeTravelInfo, Ref: "user-1:japan"}, "b")
	m.Put(Key{Type: models.DataTypeEntryInfo, Ref: "user-1"}, "c")
	m.Put(keep, "d")
	m.Put(keepLike, "e")

	m.RefreshUser("user-1")

	assert.True(t, m.IsValid(keep))
	assert.True(t, m.IsValid(keepLike), "prefix match must not drop other users")
	assert.False(t, m.IsValid(Key{Type: models.DataTypePassport, Ref: "user-1"}))
	assert.False(t, m.IsValid(Key{Type: models.DataTypeTravelInfo, Ref: "user-1:japan"}))
	assert.False(t, m.IsValid(Key{Type: models.DataTypeEntryInfo, Ref: "user-1"}))
	assert.Equal(t, uint64(3), m.Stats().Invalidations)
}

func TestManager_ResetStatsKeepsData(t *testing.T) {
	m, clock := newTestManager(DefaultTTL)
	key := Key{Type: models.DataTypePassport, Ref: "user-1"}
	m.Put(key, "v")

	_, _ = m.Get(key)
	_, _ = m.Get(Key{Type: models.DataTypePassport, Ref: "missing"})

	*clock = clock.Add(time.Minute)
	m.ResetStats()

	stats := m.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.Invalidations)
	assert.Equal(t, *clock, stats.LastReset)

	// Сброс статистики не должен вызывать перезагрузку данных
	got, ok := m.Get(key)
	require.True(t, ok, "cached data must survive a stats reset")
	assert.Equal(t, "v", got)
}
