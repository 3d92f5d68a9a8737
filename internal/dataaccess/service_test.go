package dataaccess

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/cache"
	"github.com/iudanet/entrypack/internal/crypto"
	"github.com/iudanet/entrypack/internal/entryinfo"
	"github.com/iudanet/entrypack/internal/events"
	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage/boltdb"
	"github.com/iudanet/entrypack/internal/storage/sqlite"
	"github.com/iudanet/entrypack/internal/validation"
)

type testFacade struct {
	svc      *Service
	store    *sqlite.Storage
	warnings *boltdb.Storage
	bus      *events.Bus
}

func setupFacade(t *testing.T) *testFacade {
	t.Helper()

	key := make([]byte, crypto.KeySize)
	cipher, err := crypto.NewCipher(key)
	require.NoError(t, err)

	store, err := sqlite.New(context.Background(), ":memory:", cipher)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	warnings, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "warnings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, warnings.Close()) })

	bus := events.NewBus(nil)
	svc := NewService(store, cache.NewManager(cache.NewStore(), cache.DefaultTTL), bus, nil)

	return &testFacade{svc: svc, store: store, warnings: warnings, bus: bus}
}

// withReviewer подключает машину состояний EntryInfo к шине
func (f *testFacade) withReviewer(t *testing.T) *entryinfo.Service {
	t.Helper()
	checker := entryinfo.NewService(
		entryinfo.Repositories{
			EntryInfo:    f.store,
			Passports:    f.store,
			PersonalInfo: f.store,
			TravelInfo:   f.store,
			FundItems:    f.store,
		},
		f.warnings,
		func(context.Context, entryinfo.Aggregate) (models.CompletionMetrics, error) {
			return models.CompletionMetrics{
				Categories: map[string]models.CategoryMetric{"core": {Completed: 1, Total: 1}},
			}, nil
		},
		nil,
		nil,
	)
	f.bus.SetReviewer(checker)
	return checker
}

func validPassport(userID string) *models.Passport {
	return &models.Passport{
		UserID:         userID,
		PassportNumber: "AB1234567",
		FullName:       "IVAN PETROV",
		DateOfBirth:    "1990-05-15",
		Nationality:    "RUS",
		Gender:         "M",
	}
}

func strPtr(s string) *string { return &s }

func TestService_PassportSaveGetCycle(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	saved, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	// Первое чтение - промах, данные поднимаются из репозитория
	passports, err := f.svc.GetPassports(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, passports, 1)
	assert.Equal(t, "AB1234567", passports[0].PassportNumber)

	// Второе чтение обслуживается кэшем
	_, err = f.svc.GetPassports(ctx, "user-1")
	require.NoError(t, err)

	stats := f.svc.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	// Запись инвалидирует кэш: следующее чтение снова промах, но уже
	// с новыми данными
	saved.ExpiryDate = "2031-01-01"
	_, err = f.svc.SavePassport(ctx, saved, "user-1")
	require.NoError(t, err)

	passports, err = f.svc.GetPassports(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2031-01-01", passports[0].ExpiryDate)
	assert.Equal(t, uint64(2), f.svc.CacheStats().Misses)
}

func TestService_SavePassportValidation(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	bad := validPassport("user-1")
	bad.PassportNumber = "ab-12" // строчные буквы и дефис запрещены

	_, err := f.svc.SavePassport(ctx, bad, "user-1")
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.FieldPassportNumber, verr.Field)

	count, err := f.store.CountPassportsByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count, "invalid record must never reach storage")
}

func TestService_SaveRaisesEventWithChangedFields(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	var got []models.DataChangeEvent
	f.bus.AddDataChangeListener(func(e models.DataChangeEvent) { got = append(got, e) })

	saved, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.DataTypePassport, got[0].Type)
	assert.Contains(t, got[0].Change.UpdatedFields, models.FieldPassportNumber)
	assert.Contains(t, got[0].Change.UpdatedFields, models.FieldFullName)

	// Повторное сохранение с одним изменившимся полем называет только его
	saved.ExpiryDate = "2031-01-01"
	_, err = f.svc.SavePassport(ctx, saved, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{models.FieldExpiryDate}, got[1].Change.UpdatedFields)

	// Сохранение без изменений события не поднимает
	_, err = f.svc.SavePassport(ctx, saved, "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_UpdateTravelInfoMergeSemantics(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	saved, err := f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:       "user-1",
		Destination:  "THA",
		ArrivalDate:  "2025-07-01",
		FlightNumber: "CA981",
	}, "user-1")
	require.NoError(t, err)

	// Пустой merge-only flightNumber игнорируется,
	// пустая arrivalDate - явная очистка
	updated, err := f.svc.UpdateTravelInfo(ctx, saved.ID, TravelInfoUpdate{
		FlightNumber: strPtr(""),
		ArrivalDate:  strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "CA981", updated.FlightNumber, "merge-only field must survive an empty update")
	assert.Empty(t, updated.ArrivalDate, "replace field must be cleared")

	got, err := f.store.GetTravelInfoByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "CA981", got.FlightNumber)
	assert.Empty(t, got.ArrivalDate)
}

func TestService_UpdateTravelInfoNoOp(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	var eventCount int
	f.bus.AddDataChangeListener(func(models.DataChangeEvent) { eventCount++ })

	saved, err := f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
	}, "user-1")
	require.NoError(t, err)
	countAfterSave := eventCount

	// nil-поля вообще не трогают запись
	_, err = f.svc.UpdateTravelInfo(ctx, saved.ID, TravelInfoUpdate{})
	require.NoError(t, err)
	assert.Equal(t, countAfterSave, eventCount, "no-op update must not raise an event")
}

func TestService_SaveTravelInfoSameDestinationReplaces(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	first, err := f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
		ArrivalDate: "2025-07-01",
	}, "user-1")
	require.NoError(t, err)

	// Повторное сохранение того же направления заменяет запись
	second, err := f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
		ArrivalDate: "2025-08-01",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := f.store.CountTravelInfoByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_GetTravelInfoAbsence(t *testing.T) {
	f := setupFacade(t)

	ti, err := f.svc.GetTravelInfo(context.Background(), "user-1", "THA")
	require.NoError(t, err)
	assert.Nil(t, ti, "absence is a valid outcome, not an error")
}

func TestService_HealPrimaryInvariant(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	first, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)
	second, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)

	// Ломаем инвариант напрямую в базе
	_, err = f.store.DB().ExecContext(ctx,
		`UPDATE passports SET is_primary = 1 WHERE id IN (?, ?)`, first.ID, second.ID)
	require.NoError(t, err)

	passports, err := f.svc.GetPassports(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, passports, 2)

	var primaries int
	for _, p := range passports {
		if p.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries, "load must heal the single-primary invariant")
}

func TestService_GetAllUserData(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	_, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)
	_, err = f.svc.SavePersonalInfo(ctx, &models.PersonalInfo{
		UserID: "user-1",
		Email:  "ivan@example.com",
	}, "user-1")
	require.NoError(t, err)

	data := f.svc.GetAllUserData(ctx, "user-1")
	require.NotNil(t, data.Passport)
	require.NotNil(t, data.PersonalInfo)
	assert.Equal(t, "AB1234567", data.Passport.PassportNumber)
	assert.Equal(t, "ivan@example.com", data.PersonalInfo.Email)
	assert.GreaterOrEqual(t, data.LoadDurationMs, int64(0))
}

// failingPassportRepo ломает загрузку паспортов, остальное делегирует
type failingPassportRepo struct {
	Repository
}

func (r *failingPassportRepo) GetPassportsByUserID(context.Context, string) ([]*models.Passport, error) {
	return nil, errors.New("storage unavailable")
}

func TestService_GetAllUserDataPartialFailure(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	_, err := f.svc.SavePersonalInfo(ctx, &models.PersonalInfo{
		UserID: "user-1",
		Email:  "ivan@example.com",
	}, "user-1")
	require.NoError(t, err)

	broken := NewService(&failingPassportRepo{Repository: f.store},
		cache.NewManager(cache.NewStore(), cache.DefaultTTL), events.NewBus(nil), nil)

	// Упавшая половина остается nil, успешная доезжает до вызывающего
	data := broken.GetAllUserData(ctx, "user-1")
	assert.Nil(t, data.Passport)
	require.NotNil(t, data.PersonalInfo)
	assert.Equal(t, "ivan@example.com", data.PersonalInfo.Email)
}

func TestService_BatchUpdate(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	data, err := f.svc.BatchUpdate(ctx, "user-1", BatchInput{
		Passport: &PassportUpdate{
			PassportNumber: strPtr("AB1234567"),
			FullName:       strPtr("IVAN PETROV"),
		},
		PersonalInfo: &PersonalInfoUpdate{
			Email: strPtr("ivan@example.com"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, data.Passport)
	require.NotNil(t, data.PersonalInfo)

	// Обе сущности реально закоммичены
	count, err := f.store.CountPassportsByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = f.store.CountPersonalInfoByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestService_BatchUpdateValidationStopsBoth(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	_, err := f.svc.BatchUpdate(ctx, "user-1", BatchInput{
		Passport: &PassportUpdate{
			PassportNumber: strPtr("bad number!"),
		},
		PersonalInfo: &PersonalInfoUpdate{
			Email: strPtr("ivan@example.com"),
		},
	})
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)

	// Ни одна сущность не должна была сохраниться
	count, err := f.store.CountPersonalInfoByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_BatchUpdateNoChanges(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	var eventCount int
	f.bus.AddDataChangeListener(func(models.DataChangeEvent) { eventCount++ })

	// Пустые merge-only поля не меняют ничего
	_, err := f.svc.BatchUpdate(ctx, "user-1", BatchInput{
		Passport: &PassportUpdate{PassportNumber: strPtr("")},
	})
	require.NoError(t, err)
	assert.Zero(t, eventCount)
}

func TestService_ResubmissionFlow(t *testing.T) {
	f := setupFacade(t)
	checker := f.withReviewer(t)
	ctx := context.Background()

	_, err := f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
		ArrivalDate: "2025-07-01",
	}, "user-1")
	require.NoError(t, err)

	entry, err := f.svc.SaveEntryInfo(ctx, &models.EntryInfo{
		UserID:      "user-1",
		Destination: "THA",
		Status:      models.EntryStatusReady,
	}, "user-1")
	require.NoError(t, err)

	_, err = checker.Submit(ctx, entry.ID, models.SubmittedDocument{
		CardType: "arrival",
		QRRef:    "qr/abc",
		Fields:   []string{models.FieldArrivalDate, models.FieldPassportNumber},
	})
	require.NoError(t, err)

	// Правка даты прилета через фасад каскадом устаревает подачу
	saved, err := f.svc.GetTravelInfo(ctx, "user-1", "THA")
	require.NoError(t, err)
	_, err = f.svc.UpdateTravelInfo(ctx, saved.ID, TravelInfoUpdate{
		ArrivalDate: strPtr("2025-08-15"),
	})
	require.NoError(t, err)

	// Фасад отдает свежий статус: кэш EntryInfo сброшен после ревью
	records, err := f.svc.GetEntryInfos(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.EntryStatusSuperseded, records[0].Status)

	warnings, err := checker.Warnings(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, entry.ID, warnings[0].EntryInfoID)

	// Правка поля вне snapshot повторной подачи не требует
	_, err = f.svc.UpdateTravelInfo(ctx, saved.ID, TravelInfoUpdate{
		AccommodationName: strPtr("Riverside Hotel"),
	})
	require.NoError(t, err)
}

func TestService_LinkedFundItems(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	entry, err := f.svc.SaveEntryInfo(ctx, &models.EntryInfo{
		UserID:      "user-1",
		Destination: "THA",
	}, "user-1")
	require.NoError(t, err)

	cash, err := f.svc.SaveFundItem(ctx, &models.FundItem{
		UserID:   "user-1",
		Kind:     models.FundKindCash,
		Amount:   20000,
		Currency: "THB",
	}, "user-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.LinkFundItem(ctx, entry.ID, cash.ID, "user-1"))

	items, err := f.svc.LinkedFundItems(ctx, entry.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, cash.ID, items[0].ID)

	require.NoError(t, f.svc.UnlinkFundItem(ctx, entry.ID, cash.ID, "user-1"))

	items, err = f.svc.LinkedFundItems(ctx, entry.ID, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestService_EraseUser(t *testing.T) {
	f := setupFacade(t)
	ctx := context.Background()

	_, err := f.svc.SavePassport(ctx, validPassport("user-1"), "user-1")
	require.NoError(t, err)
	_, err = f.svc.SaveTravelInfo(ctx, &models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
	}, "user-1")
	require.NoError(t, err)
	entry, err := f.svc.SaveEntryInfo(ctx, &models.EntryInfo{
		UserID:      "user-1",
		Destination: "THA",
	}, "user-1")
	require.NoError(t, err)
	require.NoError(t, f.warnings.SaveWarning(ctx, &models.ResubmissionWarning{
		EntryInfoID: entry.ID,
		UserID:      "user-1",
		Reason:      "submitted data changed",
		CreatedAt:   time.Now(),
	}))

	require.NoError(t, f.svc.EraseUser(ctx, "user-1", f.warnings))

	passports, err := f.svc.GetPassports(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, passports)

	records, err := f.svc.GetEntryInfos(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	warnings, err := f.warnings.GetWarningsByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestService_SerializablePassport(t *testing.T) {
	assert.Nil(t, ToSerializablePassport(nil))

	p := validPassport("user-1")
	p.ID = "passport-1"
	p.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt

	sp := ToSerializablePassport(p)
	require.NotNil(t, sp)
	assert.Equal(t, "passport-1", sp.ID)
	assert.Equal(t, "AB1234567", sp.PassportNumber)
	assert.Equal(t, p.CreatedAt.Unix(), sp.CreatedAt)
}
