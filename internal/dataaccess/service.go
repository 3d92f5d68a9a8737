package dataaccess

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/entrypack/internal/cache"
	"github.com/iudanet/entrypack/internal/events"
	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

// ErrConsistency indicates a violated storage invariant detected by the
// facade (two primary passports). Logged and self-healed, never returned
// from get operations.
var ErrConsistency = errors.New("consistency violation")

// Repository объединяет все репозитории слоя данных.
// Реализуется единым SQLite-хранилищем.
type Repository interface {
	storage.PassportRepository
	storage.PersonalInfoRepository
	storage.TravelInfoRepository
	storage.FundItemRepository
	storage.EntryInfoRepository
	storage.BundleRepository
}

// Service is the data access facade: the single entry point every screen
// flow uses. Reads go cache-first; writes go through the repository, then
// invalidate the cache, then raise a data-change event - in that order, all
// before the call returns, so a caller that awaited a save never observes
// stale data.
type Service struct {
	repo   Repository
	cache  *cache.Manager
	bus    *events.Bus
	logger *slog.Logger
}

// NewService creates the facade.
func NewService(repo Repository, cacheManager *cache.Manager, bus *events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  cacheManager,
		bus:    bus,
		logger: logger,
	}
}

// CacheStats exposes the cache accounting for observability surfaces.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ResetCacheStats zeroes the counters without dropping cached data.
func (s *Service) ResetCacheStats() {
	s.cache.ResetStats()
}

// EraseUser removes every record the user owns across all tables, their
// pending warnings, and every cached entry. Explicit user action or account
// erasure; there is no partial variant.
func (s *Service) EraseUser(ctx context.Context, userID string, warnings storage.WarningStore) error {
	type deleter struct {
		name string
		fn   func(context.Context, string) (int64, error)
	}
	deleters := []deleter{
		{"entry infos", s.repo.DeleteEntryInfosByUserID},
		{"travel info", s.repo.DeleteTravelInfoByUserID},
		{"fund items", s.repo.DeleteFundItemsByUserID},
		{"personal info", s.repo.DeletePersonalInfoByUserID},
		{"passports", s.repo.DeletePassportsByUserID},
	}

	for _, d := range deleters {
		count, err := d.fn(ctx, userID)
		if err != nil {
			// Кэш сбрасываем даже при частичном удалении, чтобы не отдать
			// устаревшие данные после ошибки
			s.cache.RefreshUser(userID)
			return err
		}
		s.logger.Info("erased user records", "table", d.name, "user_id", userID, "count", count)
	}

	if warnings != nil {
		if _, err := warnings.ClearUserWarnings(ctx, userID); err != nil {
			s.cache.RefreshUser(userID)
			return err
		}
	}

	s.cache.RefreshUser(userID)
	return nil
}

// key builds a validated cache key; a malformed key is a programming error
// surfaced in logs, and the caller falls through to the repository.
func (s *Service) key(dataType models.DataType, ref string) (cache.Key, bool) {
	k, err := cache.NewKey(dataType, ref)
	if err != nil {
		s.logger.Error("invalid cache key", "type", dataType, "ref", ref, "error", err)
		return cache.Key{}, false
	}
	return k, true
}

// raise fires the data-change event after a successful write. The write has
// already committed and the cache is already invalidated: a listener or
// review failure is logged, not surfaced to the saver.
func (s *Service) raise(ctx context.Context, dataType models.DataType, userID string, updatedFields []string, destination string) {
	if len(updatedFields) == 0 {
		return
	}
	event := models.DataChangeEvent{
		Type:      dataType,
		UserID:    userID,
		Timestamp: time.Now(),
		Change: models.ChangeDetails{
			UpdatedFields: updatedFields,
			Destination:   destination,
		},
	}
	if err := s.bus.TriggerDataChangeEvent(ctx, event); err != nil {
		s.logger.Warn("data change event handling failed",
			"type", dataType,
			"user_id", userID,
			"error", err,
		)
	}

	// Ревью могло перевести EntryInfo в другой статус мимо этого кэша
	s.invalidateEntryInfos(userID)
}
