package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/entrypack/internal/models"
)

// SaveBundle persists a passport and a personal info record inside one
// transaction. Either record may be nil. Any failure, including an
// encryption error mid-transaction, rolls the whole batch back: partial
// commits across entities are never allowed.
func (s *Storage) SaveBundle(ctx context.Context, p *models.Passport, pi *models.PersonalInfo) error {
	if p == nil && pi == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op после успешного Commit
	}()

	now := time.Now()

	if p != nil {
		stored := *p
		stored.UpdatedAt = now
		if stored.ID == "" {
			stored.ID = uuid.New().String()
			stored.CreatedAt = now
		}

		// Проверяем существование внутри транзакции
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM passports WHERE id = ?)`, stored.ID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check passport existence: %w", err)
		}

		if err := s.upsertPassport(ctx, tx, &stored, intToBool(exists), now); err != nil {
			return err
		}
	}

	if pi != nil {
		if err := s.upsertPersonalInfoTx(ctx, tx, pi, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bundle: %w", err)
	}
	return nil
}

// upsertPersonalInfoTx выполняет upsert контактных данных внутри транзакции
func (s *Storage) upsertPersonalInfoTx(ctx context.Context, q dbtx, pi *models.PersonalInfo, now time.Time) error {
	stored := *pi

	var existingID string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM personal_info WHERE user_id = ?`, stored.UserID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing personal info: %w", err)
	}

	if existingID != "" {
		query := `
			UPDATE personal_info
			SET email = ?, phone = ?, occupation = ?, residence_country = ?,
			    residence_city = ?, residence_address = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := q.ExecContext(ctx, query,
			stored.Email, stored.Phone, stored.Occupation,
			stored.ResidenceCountry, stored.ResidenceCity, stored.ResidenceAddress,
			now.Unix(), existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update personal info: %w", err)
		}
		return nil
	}

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	query := `
		INSERT INTO personal_info (
			id, user_id, email, phone, occupation,
			residence_country, residence_city, residence_address,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		stored.ID, stored.UserID, stored.Email, stored.Phone, stored.Occupation,
		stored.ResidenceCountry, stored.ResidenceCity, stored.ResidenceAddress,
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert personal info: %w", err)
	}
	return nil
}
