package dataaccess

import (
	"context"
	"errors"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
	"github.com/iudanet/entrypack/internal/validation"
)

// GetPersonalInfo returns the user's contact record, cache-first.
// Returns nil without error when the user never saved one.
func (s *Service) GetPersonalInfo(ctx context.Context, userID string) (*models.PersonalInfo, error) {
	key, ok := s.key(models.DataTypePersonalInfo, userID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if pi, valid := cached.(*models.PersonalInfo); valid {
				return pi, nil
			}
		}
	}

	pi, err := s.repo.GetPersonalInfoByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if ok {
		s.cache.Put(key, pi)
	}
	return pi, nil
}

// SavePersonalInfo validates and upserts the contact record, invalidates the
// cache entry, then raises an event naming the fields that differ from the
// previously stored values.
func (s *Service) SavePersonalInfo(ctx context.Context, pi *models.PersonalInfo, userID string) (*models.PersonalInfo, error) {
	if pi != nil && pi.UserID == "" {
		pi.UserID = userID
	}
	if err := validation.ValidatePersonalInfo(pi); err != nil {
		return nil, err
	}

	previous, err := s.repo.GetPersonalInfoByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	stored, err := s.repo.SavePersonalInfo(ctx, pi)
	if err != nil {
		s.invalidatePersonalInfo(userID)
		return nil, err
	}

	s.invalidatePersonalInfo(userID)
	s.raise(ctx, models.DataTypePersonalInfo, userID, personalInfoChangedFields(previous, stored), "")
	return stored, nil
}

// UpdatePersonalInfo merges the supplied non-empty fields over the stored
// record. Creates the record when the user has none yet.
func (s *Service) UpdatePersonalInfo(ctx context.Context, userID string, update PersonalInfoUpdate) (*models.PersonalInfo, error) {
	existing, err := s.repo.GetPersonalInfoByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	merged := models.PersonalInfo{UserID: userID}
	if existing != nil {
		merged = *existing
	}

	var changed []string
	mergeField(&merged.Email, update.Email, models.FieldEmail, false, &changed)
	mergeField(&merged.Phone, update.Phone, models.FieldPhone, false, &changed)
	mergeField(&merged.Occupation, update.Occupation, models.FieldOccupation, false, &changed)
	mergeField(&merged.ResidenceCountry, update.ResidenceCountry, models.FieldResidenceCountry, false, &changed)
	mergeField(&merged.ResidenceCity, update.ResidenceCity, models.FieldResidenceCity, false, &changed)
	mergeField(&merged.ResidenceAddress, update.ResidenceAddress, models.FieldResidenceAddress, false, &changed)

	if len(changed) == 0 {
		return existing, nil
	}
	if err := validation.ValidatePersonalInfo(&merged); err != nil {
		return nil, err
	}

	stored, err := s.repo.SavePersonalInfo(ctx, &merged)
	if err != nil {
		s.invalidatePersonalInfo(userID)
		return nil, err
	}

	s.invalidatePersonalInfo(userID)
	s.raise(ctx, models.DataTypePersonalInfo, userID, changed, "")
	return stored, nil
}

func (s *Service) invalidatePersonalInfo(userID string) {
	if key, ok := s.key(models.DataTypePersonalInfo, userID); ok {
		s.cache.Invalidate(key)
	}
}

func personalInfoChangedFields(old, stored *models.PersonalInfo) []string {
	if stored == nil {
		return nil
	}
	var o models.PersonalInfo
	if old != nil {
		o = *old
	}
	type pair struct {
		field    string
		from, to string
	}
	pairs := []pair{
		{models.FieldEmail, o.Email, stored.Email},
		{models.FieldPhone, o.Phone, stored.Phone},
		{models.FieldOccupation, o.Occupation, stored.Occupation},
		{models.FieldResidenceCountry, o.ResidenceCountry, stored.ResidenceCountry},
		{models.FieldResidenceCity, o.ResidenceCity, stored.ResidenceCity},
		{models.FieldResidenceAddress, o.ResidenceAddress, stored.ResidenceAddress},
	}
	var changed []string
	for _, p := range pairs {
		if p.from != p.to {
			changed = append(changed, p.field)
		}
	}
	return changed
}
