package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "warnings.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testWarning(userID, entryInfoID string, createdAt time.Time) *models.ResubmissionWarning {
	return &models.ResubmissionWarning{
		CreatedAt:   createdAt,
		EntryInfoID: entryInfoID,
		UserID:      userID,
		Reason:      "submitted data changed: [arrivalDate]",
	}
}

func TestStorage_SaveAndGetWarning(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	w := testWarning("user-1", "entry-1", now)
	require.NoError(t, s.SaveWarning(ctx, w))

	got, err := s.GetWarningByEntryInfo(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "entry-1", got.EntryInfoID)
	assert.Equal(t, w.Reason, got.Reason)
	assert.True(t, now.Equal(got.CreatedAt))
}

func TestStorage_GetWarningNotFound(t *testing.T) {
	s := setupTestStorage(t)

	_, err := s.GetWarningByEntryInfo(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_SaveWarningReplaces(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	first := testWarning("user-1", "entry-1", time.Now())
	require.NoError(t, s.SaveWarning(ctx, first))

	second := testWarning("user-1", "entry-1", time.Now())
	second.Reason = "submitted data changed: [passportNumber]"
	require.NoError(t, s.SaveWarning(ctx, second))

	// На одну EntryInfo приходится не больше одного предупреждения
	warnings, err := s.GetWarningsByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, second.Reason, warnings[0].Reason)
}

func TestStorage_GetWarningsByUser(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveWarning(ctx, testWarning("user-1", "entry-old", base)))
	require.NoError(t, s.SaveWarning(ctx, testWarning("user-1", "entry-new", base.Add(time.Hour))))
	require.NoError(t, s.SaveWarning(ctx, testWarning("user-2", "entry-other", base)))

	warnings, err := s.GetWarningsByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	// Новые впереди
	assert.Equal(t, "entry-new", warnings[0].EntryInfoID)
	assert.Equal(t, "entry-old", warnings[1].EntryInfoID)

	limited, err := s.GetWarningsByUser(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "entry-new", limited[0].EntryInfoID)

	empty, err := s.GetWarningsByUser(ctx, "user-3", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorage_ClearWarning(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWarning(ctx, testWarning("user-1", "entry-1", time.Now())))
	require.NoError(t, s.ClearWarning(ctx, "entry-1"))

	_, err := s.GetWarningByEntryInfo(ctx, "entry-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Повторная очистка не является ошибкой
	assert.NoError(t, s.ClearWarning(ctx, "entry-1"))
}

func TestStorage_ClearUserWarnings(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWarning(ctx, testWarning("user-1", "entry-1", time.Now())))
	require.NoError(t, s.SaveWarning(ctx, testWarning("user-1", "entry-2", time.Now())))
	require.NoError(t, s.SaveWarning(ctx, testWarning("user-2", "entry-3", time.Now())))

	cleared, err := s.ClearUserWarnings(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	remaining, err := s.GetWarningsByUser(ctx, "user-2", 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
