package dataaccess

import (
	"context"
	"errors"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
	"github.com/iudanet/entrypack/internal/validation"
)

// GetTravelInfo returns the trip record for one destination, cache-first.
// Returns nil without error when no trip to that destination exists. The
// destination must already be canonical: the facade performs no spelling
// fallbacks, missing data surfaces as absence.
func (s *Service) GetTravelInfo(ctx context.Context, userID, destination string) (*models.TravelInfo, error) {
	key, ok := s.key(models.DataTypeTravelInfo, userID+":"+destination)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if ti, valid := cached.(*models.TravelInfo); valid {
				return ti, nil
			}
		}
	}

	ti, err := s.repo.GetTravelInfoByDestination(ctx, userID, destination)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if ok {
		s.cache.Put(key, ti)
	}
	return ti, nil
}

// GetTravelInfos returns all of the user's trip records, newest first,
// cache-first.
func (s *Service) GetTravelInfos(ctx context.Context, userID string) ([]*models.TravelInfo, error) {
	key, ok := s.key(models.DataTypeTravelInfo, userID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if records, valid := cached.([]*models.TravelInfo); valid {
				return records, nil
			}
		}
	}

	records, err := s.repo.GetTravelInfoByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ok {
		s.cache.Put(key, records)
	}
	return records, nil
}

// SaveTravelInfo validates and persists a trip record, invalidates both the
// per-user list and the per-destination entry, then raises an event scoped
// to the destination.
func (s *Service) SaveTravelInfo(ctx context.Context, ti *models.TravelInfo, userID string) (*models.TravelInfo, error) {
	if ti != nil && ti.UserID == "" {
		ti.UserID = userID
	}
	if err := validation.ValidateTravelInfo(ti); err != nil {
		return nil, err
	}

	previous, err := s.repo.GetTravelInfoByDestination(ctx, userID, ti.Destination)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	// Повторное сохранение того же направления - замена существующей записи
	if previous != nil && ti.ID == "" {
		ti.ID = previous.ID
		ti.CreatedAt = previous.CreatedAt
	}

	stored, err := s.repo.SaveTravelInfo(ctx, ti)
	if err != nil {
		s.invalidateTravelInfo(userID, ti.Destination)
		return nil, err
	}

	s.invalidateTravelInfo(userID, stored.Destination)
	s.raise(ctx, models.DataTypeTravelInfo, userID, travelInfoChangedFields(previous, stored), stored.Destination)
	return stored, nil
}

// UpdateTravelInfo merges the supplied fields over the stored record.
// Merge-only semantics guard every field except the trip dates, which are
// explicit replace fields: a supplied empty date clears the stored one.
func (s *Service) UpdateTravelInfo(ctx context.Context, id string, update TravelInfoUpdate) (*models.TravelInfo, error) {
	existing, err := s.repo.GetTravelInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	var changed []string
	mergeField(&merged.ArrivalDate, update.ArrivalDate, models.FieldArrivalDate, true, &changed)
	mergeField(&merged.DepartureDate, update.DepartureDate, models.FieldDepartureDate, true, &changed)
	mergeField(&merged.FlightNumber, update.FlightNumber, models.FieldFlightNumber, false, &changed)
	mergeField(&merged.ReturnFlightNumber, update.ReturnFlightNumber, models.FieldReturnFlight, false, &changed)
	mergeField(&merged.AccommodationName, update.AccommodationName, models.FieldAccommodation, false, &changed)
	mergeField(&merged.AccommodationAddress, update.AccommodationAddress, models.FieldAccommodationAdr, false, &changed)

	if len(changed) == 0 {
		return existing, nil
	}
	if err := validation.ValidateTravelInfo(&merged); err != nil {
		return nil, err
	}

	stored, err := s.repo.SaveTravelInfo(ctx, &merged)
	if err != nil {
		s.invalidateTravelInfo(existing.UserID, existing.Destination)
		return nil, err
	}

	s.invalidateTravelInfo(existing.UserID, existing.Destination)
	s.raise(ctx, models.DataTypeTravelInfo, existing.UserID, changed, existing.Destination)
	return stored, nil
}

func (s *Service) invalidateTravelInfo(userID, destination string) {
	if key, ok := s.key(models.DataTypeTravelInfo, userID); ok {
		s.cache.Invalidate(key)
	}
	if destination == "" {
		return
	}
	if key, ok := s.key(models.DataTypeTravelInfo, userID+":"+destination); ok {
		s.cache.Invalidate(key)
	}
}

func travelInfoChangedFields(old, stored *models.TravelInfo) []string {
	if stored == nil {
		return nil
	}
	var o models.TravelInfo
	if old != nil {
		o = *old
	}
	type pair struct {
		field    string
		from, to string
	}
	pairs := []pair{
		{models.FieldArrivalDate, o.ArrivalDate, stored.ArrivalDate},
		{models.FieldDepartureDate, o.DepartureDate, stored.DepartureDate},
		{models.FieldFlightNumber, o.FlightNumber, stored.FlightNumber},
		{models.FieldReturnFlight, o.ReturnFlightNumber, stored.ReturnFlightNumber},
		{models.FieldAccommodation, o.AccommodationName, stored.AccommodationName},
		{models.FieldAccommodationAdr, o.AccommodationAddress, stored.AccommodationAddress},
	}
	var changed []string
	for _, p := range pairs {
		if p.from != p.to {
			changed = append(changed, p.field)
		}
	}
	return changed
}
