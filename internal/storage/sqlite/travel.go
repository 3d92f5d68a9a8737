package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

const travelInfoColumns = `id, user_id, destination, arrival_date, departure_date,
	       flight_number, return_flight_number, accommodation_name,
	       accommodation_address, entry_info_id, created_at, updated_at`

// SaveTravelInfo inserts or replaces a travel record by id, generating an id
// when absent. The (user_id, destination) pair is unique: inserting a second
// record for the same destination returns ErrConflict.
func (s *Storage) SaveTravelInfo(ctx context.Context, ti *models.TravelInfo) (*models.TravelInfo, error) {
	stored := *ti
	now := time.Now()
	stored.UpdatedAt = now

	exists := false
	if stored.ID == "" {
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
	} else {
		var err error
		exists, err = s.TravelInfoExists(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
	}

	if exists {
		query := `
			UPDATE travel_info
			SET destination = ?, arrival_date = ?, departure_date = ?,
			    flight_number = ?, return_flight_number = ?,
			    accommodation_name = ?, accommodation_address = ?,
			    entry_info_id = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := s.db.ExecContext(ctx, query,
			stored.Destination, stored.ArrivalDate, stored.DepartureDate,
			stored.FlightNumber, stored.ReturnFlightNumber,
			stored.AccommodationName, stored.AccommodationAddress,
			stored.EntryInfoID, now.Unix(), stored.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update travel info: %w", err)
		}
		return &stored, nil
	}

	query := `
		INSERT INTO travel_info (
			id, user_id, destination, arrival_date, departure_date,
			flight_number, return_flight_number, accommodation_name,
			accommodation_address, entry_info_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		stored.ID, stored.UserID, stored.Destination,
		stored.ArrivalDate, stored.DepartureDate,
		stored.FlightNumber, stored.ReturnFlightNumber,
		stored.AccommodationName, stored.AccommodationAddress,
		stored.EntryInfoID, stored.CreatedAt.Unix(), now.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("failed to insert travel info: %w", err)
	}

	return &stored, nil
}

// GetTravelInfoByID retrieves a record by id.
// Returns ErrNotFound if it doesn't exist.
func (s *Storage) GetTravelInfoByID(ctx context.Context, id string) (*models.TravelInfo, error) {
	query := `SELECT ` + travelInfoColumns + ` FROM travel_info WHERE id = ?`
	return scanTravelInfoRow(s.db.QueryRowContext(ctx, query, id).Scan)
}

// GetTravelInfoByDestination returns the record for one destination.
// Returns ErrNotFound if the user has no trip to that destination.
func (s *Storage) GetTravelInfoByDestination(ctx context.Context, userID, destination string) (*models.TravelInfo, error) {
	query := `SELECT ` + travelInfoColumns + ` FROM travel_info WHERE user_id = ? AND destination = ?`
	return scanTravelInfoRow(s.db.QueryRowContext(ctx, query, userID, destination).Scan)
}

// GetTravelInfoByUserID returns the user's travel records, newest first.
func (s *Storage) GetTravelInfoByUserID(ctx context.Context, userID string) ([]*models.TravelInfo, error) {
	query := `
		SELECT ` + travelInfoColumns + `
		FROM travel_info
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query travel info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = cerr
		}
	}()

	var records []*models.TravelInfo
	for rows.Next() {
		ti, serr := scanTravelInfoRow(rows.Scan)
		if serr != nil {
			return nil, serr
		}
		records = append(records, ti)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// DeleteTravelInfoByUserID removes all of the user's travel records.
func (s *Storage) DeleteTravelInfoByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM travel_info WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete travel info: %w", err)
	}
	return result.RowsAffected()
}

// TravelInfoExists reports whether a record with the given id exists.
func (s *Storage) TravelInfoExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM travel_info WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check travel info existence: %w", err)
	}
	return intToBool(exists), nil
}

// CountTravelInfoByUserID returns the number of travel records the user has.
func (s *Storage) CountTravelInfoByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM travel_info WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count travel info: %w", err)
	}
	return count, nil
}

func scanTravelInfoRow(scan func(dest ...any) error) (*models.TravelInfo, error) {
	ti := &models.TravelInfo{}
	var createdAt, updatedAt int64

	err := scan(
		&ti.ID, &ti.UserID, &ti.Destination, &ti.ArrivalDate, &ti.DepartureDate,
		&ti.FlightNumber, &ti.ReturnFlightNumber, &ti.AccommodationName,
		&ti.AccommodationAddress, &ti.EntryInfoID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan travel info: %w", err)
	}

	ti.CreatedAt = unixToTime(createdAt)
	ti.UpdatedAt = unixToTime(updatedAt)
	return ti, nil
}
