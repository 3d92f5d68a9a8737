package dataaccess

import (
	"context"
	"errors"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
	"github.com/iudanet/entrypack/internal/validation"
)

// GetEntryInfos returns the user's entry preparation records, newest first,
// cache-first.
func (s *Service) GetEntryInfos(ctx context.Context, userID string) ([]*models.EntryInfo, error) {
	key, ok := s.key(models.DataTypeEntryInfo, userID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if records, valid := cached.([]*models.EntryInfo); valid {
				return records, nil
			}
		}
	}

	records, err := s.repo.GetEntryInfosByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ok {
		s.cache.Put(key, records)
	}
	return records, nil
}

// GetEntryInfo returns one entry preparation record by id.
// Returns nil without error when it doesn't exist.
func (s *Service) GetEntryInfo(ctx context.Context, id string) (*models.EntryInfo, error) {
	ei, err := s.repo.GetEntryInfoByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ei, nil
}

// SaveEntryInfo validates and persists an entry preparation record,
// invalidates the user's cached records, then raises an event scoped to the
// record's destination. Status transitions are the state machine's business:
// this path persists whatever status the record already carries.
func (s *Service) SaveEntryInfo(ctx context.Context, ei *models.EntryInfo, userID string) (*models.EntryInfo, error) {
	if ei != nil && ei.UserID == "" {
		ei.UserID = userID
	}
	if ei != nil && ei.Status == "" {
		ei.Status = models.EntryStatusIncomplete
	}
	if err := validation.ValidateEntryInfo(ei); err != nil {
		return nil, err
	}

	stored, err := s.repo.SaveEntryInfo(ctx, ei)
	if err != nil {
		s.invalidateEntryInfos(userID)
		return nil, err
	}

	s.invalidateEntryInfos(userID)
	s.raise(ctx, models.DataTypeEntryInfo, userID, []string{"entryInfo"}, stored.Destination)
	return stored, nil
}

// InvalidateEntryInfos drops the user's cached entry records. The state
// machine persists status changes through its own repository handle; this
// keeps the facade's cache from serving the old status afterwards.
func (s *Service) InvalidateEntryInfos(userID string) {
	s.invalidateEntryInfos(userID)
}

func (s *Service) invalidateEntryInfos(userID string) {
	if key, ok := s.key(models.DataTypeEntryInfo, userID); ok {
		s.cache.Invalidate(key)
	}
}
