package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

const personalInfoColumns = `id, user_id, email, phone, occupation,
	       residence_country, residence_city, residence_address,
	       created_at, updated_at`

// SavePersonalInfo upserts the user's contact record: creates it on first
// save, otherwise replaces the existing row keeping its id and created_at.
func (s *Storage) SavePersonalInfo(ctx context.Context, pi *models.PersonalInfo) (*models.PersonalInfo, error) {
	stored := *pi
	now := time.Now()
	stored.UpdatedAt = now

	// Запись ключуется пользователем: ищем существующую
	existing, err := s.GetPersonalInfoByUserID(ctx, stored.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing personal info: %w", err)
	}

	if existing != nil {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt

		query := `
			UPDATE personal_info
			SET email = ?, phone = ?, occupation = ?, residence_country = ?,
			    residence_city = ?, residence_address = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := s.db.ExecContext(ctx, query,
			stored.Email, stored.Phone, stored.Occupation,
			stored.ResidenceCountry, stored.ResidenceCity, stored.ResidenceAddress,
			now.Unix(), stored.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update personal info: %w", err)
		}
		return &stored, nil
	}

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = now

	query := `
		INSERT INTO personal_info (
			id, user_id, email, phone, occupation,
			residence_country, residence_city, residence_address,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		stored.ID, stored.UserID, stored.Email, stored.Phone, stored.Occupation,
		stored.ResidenceCountry, stored.ResidenceCity, stored.ResidenceAddress,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert personal info: %w", err)
	}

	return &stored, nil
}

// GetPersonalInfoByID retrieves a record by id.
// Returns ErrNotFound if it doesn't exist.
func (s *Storage) GetPersonalInfoByID(ctx context.Context, id string) (*models.PersonalInfo, error) {
	query := `SELECT ` + personalInfoColumns + ` FROM personal_info WHERE id = ?`
	return s.scanPersonalInfo(s.db.QueryRowContext(ctx, query, id))
}

// GetPersonalInfoByUserID returns the user's single contact record.
// Returns ErrNotFound if the user never saved one.
func (s *Storage) GetPersonalInfoByUserID(ctx context.Context, userID string) (*models.PersonalInfo, error) {
	query := `SELECT ` + personalInfoColumns + ` FROM personal_info WHERE user_id = ?`
	return s.scanPersonalInfo(s.db.QueryRowContext(ctx, query, userID))
}

// DeletePersonalInfoByUserID removes the user's record.
func (s *Storage) DeletePersonalInfoByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM personal_info WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete personal info: %w", err)
	}
	return result.RowsAffected()
}

// PersonalInfoExists reports whether a record with the given id exists.
func (s *Storage) PersonalInfoExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM personal_info WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check personal info existence: %w", err)
	}
	return intToBool(exists), nil
}

// CountPersonalInfoByUserID returns 0 or 1.
func (s *Storage) CountPersonalInfoByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM personal_info WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count personal info: %w", err)
	}
	return count, nil
}

func (s *Storage) scanPersonalInfo(row *sql.Row) (*models.PersonalInfo, error) {
	pi := &models.PersonalInfo{}
	var createdAt, updatedAt int64

	err := row.Scan(
		&pi.ID, &pi.UserID, &pi.Email, &pi.Phone, &pi.Occupation,
		&pi.ResidenceCountry, &pi.ResidenceCity, &pi.ResidenceAddress,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan personal info: %w", err)
	}

	pi.CreatedAt = unixToTime(createdAt)
	pi.UpdatedAt = unixToTime(updatedAt)
	return pi, nil
}
