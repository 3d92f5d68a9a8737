package dataaccess

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
	"github.com/iudanet/entrypack/internal/validation"
)

// GetPassports returns the user's passports, primary first, cache-first.
// Absence is a valid outcome: an empty slice with no error.
func (s *Service) GetPassports(ctx context.Context, userID string) ([]*models.Passport, error) {
	key, ok := s.key(models.DataTypePassport, userID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if passports, valid := cached.([]*models.Passport); valid {
				return passports, nil
			}
		}
	}

	passports, err := s.repo.GetPassportsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	passports, err = s.healPrimaryInvariant(ctx, userID, passports)
	if err != nil {
		return nil, err
	}

	if ok {
		s.cache.Put(key, passports)
	}
	return passports, nil
}

// GetPassport returns the user's primary passport, or the most recent one
// when no primary is set. Returns nil without error when the user has none.
func (s *Service) GetPassport(ctx context.Context, userID string) (*models.Passport, error) {
	passports, err := s.GetPassports(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(passports) == 0 {
		return nil, nil
	}
	return passports[0], nil
}

// SavePassport validates and persists a passport, invalidates the user's
// cached passports, then raises a data-change event naming the fields that
// differ from the previously stored record.
func (s *Service) SavePassport(ctx context.Context, p *models.Passport, userID string) (*models.Passport, error) {
	if p != nil && p.UserID == "" {
		p.UserID = userID
	}
	if err := validation.ValidatePassport(p); err != nil {
		return nil, err
	}

	var previous *models.Passport
	if p.ID != "" {
		existing, err := s.repo.GetPassportByID(ctx, p.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		previous = existing
	}

	stored, err := s.repo.SavePassport(ctx, p)
	if err != nil {
		s.invalidatePassports(userID)
		return nil, err
	}

	s.invalidatePassports(userID)
	s.raise(ctx, models.DataTypePassport, userID, passportChangedFields(previous, stored), "")
	return stored, nil
}

// UpdatePassport loads the passport, merges the supplied non-empty fields
// over it, persists the merge, and raises an event with the fields that
// actually changed. A no-op merge writes nothing and raises nothing.
func (s *Service) UpdatePassport(ctx context.Context, id string, update PassportUpdate) (*models.Passport, error) {
	existing, err := s.repo.GetPassportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	var changed []string
	mergeField(&merged.PassportNumber, update.PassportNumber, models.FieldPassportNumber, false, &changed)
	mergeField(&merged.FullName, update.FullName, models.FieldFullName, false, &changed)
	mergeField(&merged.DateOfBirth, update.DateOfBirth, models.FieldDateOfBirth, false, &changed)
	mergeField(&merged.Nationality, update.Nationality, models.FieldNationality, false, &changed)
	mergeField(&merged.Gender, update.Gender, models.FieldGender, false, &changed)
	mergeField(&merged.IssueDate, update.IssueDate, models.FieldIssueDate, false, &changed)
	mergeField(&merged.ExpiryDate, update.ExpiryDate, models.FieldExpiryDate, false, &changed)
	mergeField(&merged.PhotoRef, update.PhotoRef, models.FieldPhotoRef, false, &changed)

	if len(changed) == 0 {
		return existing, nil
	}
	if err := validation.ValidatePassport(&merged); err != nil {
		return nil, err
	}

	stored, err := s.repo.SavePassport(ctx, &merged)
	if err != nil {
		s.invalidatePassports(existing.UserID)
		return nil, err
	}

	s.invalidatePassports(existing.UserID)
	s.raise(ctx, models.DataTypePassport, existing.UserID, changed, "")
	return stored, nil
}

// SetPrimaryPassport promotes one passport inside a single repository
// transaction, then invalidates and raises the event.
func (s *Service) SetPrimaryPassport(ctx context.Context, passportID, userID string) error {
	if err := s.repo.SetPrimaryPassport(ctx, passportID, userID); err != nil {
		return err
	}
	s.invalidatePassports(userID)
	s.raise(ctx, models.DataTypePassport, userID, []string{models.FieldIsPrimary}, "")
	return nil
}

func (s *Service) invalidatePassports(userID string) {
	if key, ok := s.key(models.DataTypePassport, userID); ok {
		s.cache.Invalidate(key)
	}
}

// healPrimaryInvariant re-derives the single-primary invariant from
// persisted data when a load observes it violated: the newest primary wins,
// the rest are demoted through the same transactional path.
func (s *Service) healPrimaryInvariant(ctx context.Context, userID string, passports []*models.Passport) ([]*models.Passport, error) {
	var primaries int
	for _, p := range passports {
		if p.IsPrimary {
			primaries++
		}
	}
	if primaries <= 1 {
		return passports, nil
	}

	s.logger.Error("consistency violation: multiple primary passports",
		"user_id", userID,
		"count", primaries,
		"error", ErrConsistency,
	)

	// Выдача отсортирована primary-first, затем по убыванию created_at:
	// первый элемент - новейший из основных
	if err := s.repo.SetPrimaryPassport(ctx, passports[0].ID, userID); err != nil {
		return nil, fmt.Errorf("failed to heal primary invariant: %w", err)
	}
	return s.repo.GetPassportsByUserID(ctx, userID)
}

func passportChangedFields(old, stored *models.Passport) []string {
	if stored == nil {
		return nil
	}
	type pair struct {
		field    string
		from, to string
	}
	var o models.Passport
	if old != nil {
		o = *old
	}
	pairs := []pair{
		{models.FieldPassportNumber, o.PassportNumber, stored.PassportNumber},
		{models.FieldFullName, o.FullName, stored.FullName},
		{models.FieldDateOfBirth, o.DateOfBirth, stored.DateOfBirth},
		{models.FieldNationality, o.Nationality, stored.Nationality},
		{models.FieldGender, o.Gender, stored.Gender},
		{models.FieldIssueDate, o.IssueDate, stored.IssueDate},
		{models.FieldExpiryDate, o.ExpiryDate, stored.ExpiryDate},
		{models.FieldPhotoRef, o.PhotoRef, stored.PhotoRef},
	}
	var changed []string
	for _, p := range pairs {
		if p.from != p.to {
			changed = append(changed, p.field)
		}
	}
	if old != nil && old.IsPrimary != stored.IsPrimary || old == nil && stored.IsPrimary {
		changed = append(changed, models.FieldIsPrimary)
	}
	return changed
}
