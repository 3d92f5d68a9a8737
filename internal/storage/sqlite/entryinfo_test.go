package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

func testEntryInfo(userID, destination string) *models.EntryInfo {
	return &models.EntryInfo{
		UserID:      userID,
		Destination: destination,
		Metrics: models.CompletionMetrics{
			Categories: map[string]models.CategoryMetric{
				"passport": {Completed: 2, Total: 3},
			},
			MissingFields: []string{models.FieldExpiryDate},
		},
	}
}

func TestStorage_SaveAndGetEntryInfo(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	saved, err := s.SaveEntryInfo(ctx, testEntryInfo("user-1", "THA"))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	// Пустой статус нормализуется в incomplete
	assert.Equal(t, models.EntryStatusIncomplete, saved.Status)

	got, err := s.GetEntryInfoByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "THA", got.Destination)
	assert.Equal(t, models.EntryStatusIncomplete, got.Status)
	// Метрики проходят через JSON без потерь
	require.Contains(t, got.Metrics.Categories, "passport")
	assert.Equal(t, models.CategoryMetric{Completed: 2, Total: 3}, got.Metrics.Categories["passport"])
	assert.Equal(t, []string{models.FieldExpiryDate}, got.Metrics.MissingFields)
}

func TestStorage_EntryInfoDocumentsRoundTrip(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	entry := testEntryInfo("user-1", "THA")
	entry.Status = models.EntryStatusSubmitted
	entry.Documents = []models.SubmittedDocument{
		{
			SubmittedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			CardType:    "arrival",
			QRRef:       "qr/abc123",
			PDFRef:      "pdf/abc123",
			Fields:      []string{models.FieldPassportNumber, models.FieldArrivalDate},
		},
	}

	saved, err := s.SaveEntryInfo(ctx, entry)
	require.NoError(t, err)

	got, err := s.GetEntryInfoByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	doc := got.Documents[0]
	assert.Equal(t, "arrival", doc.CardType)
	assert.Equal(t, "qr/abc123", doc.QRRef)
	assert.Equal(t, []string{models.FieldPassportNumber, models.FieldArrivalDate}, doc.Fields)
}

func TestStorage_UpdateEntryInfoStatus(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	saved, err := s.SaveEntryInfo(ctx, testEntryInfo("user-1", "THA"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateEntryInfoStatus(ctx, saved.ID, models.EntryStatusReady))

	got, err := s.GetEntryInfoByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusReady, got.Status)

	err = s.UpdateEntryInfoStatus(ctx, "missing", models.EntryStatusReady)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_GetEntryInfosByUserIDOrder(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	old := testEntryInfo("user-1", "THA")
	old.CreatedAt = time.Now().Add(-time.Hour)
	old.ID = "entry-old"
	_, err := s.SaveEntryInfo(ctx, old)
	require.NoError(t, err)

	recent := testEntryInfo("user-1", "JPN")
	recent.CreatedAt = time.Now()
	recent.ID = "entry-new"
	_, err = s.SaveEntryInfo(ctx, recent)
	require.NoError(t, err)

	records, err := s.GetEntryInfosByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "entry-new", records[0].ID)
	assert.Equal(t, "entry-old", records[1].ID)
}

func TestStorage_FundItemLinks(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	entry, err := s.SaveEntryInfo(ctx, testEntryInfo("user-1", "THA"))
	require.NoError(t, err)

	require.NoError(t, s.LinkFundItem(ctx, entry.ID, "fund-1"))
	require.NoError(t, s.LinkFundItem(ctx, entry.ID, "fund-2"))
	// Повторная привязка не создает дубликат
	require.NoError(t, s.LinkFundItem(ctx, entry.ID, "fund-1"))

	ids, err := s.LinkedFundItemIDs(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "fund-1")
	assert.Contains(t, ids, "fund-2")

	require.NoError(t, s.UnlinkFundItem(ctx, entry.ID, "fund-1"))

	ids, err = s.LinkedFundItemIDs(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fund-2"}, ids)
}

func TestStorage_DeleteEntryInfosByUserID(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	entry, err := s.SaveEntryInfo(ctx, testEntryInfo("user-1", "THA"))
	require.NoError(t, err)
	require.NoError(t, s.LinkFundItem(ctx, entry.ID, "fund-1"))

	deleted, err := s.DeleteEntryInfosByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Связи с fund items удаляются вместе с записью
	ids, err := s.LinkedFundItemIDs(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
