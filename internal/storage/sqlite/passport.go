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

const passportColumns = `id, user_id, passport_number, full_name, date_of_birth,
	       nationality, gender, issue_date, expiry_date, photo_ref,
	       is_primary, created_at, updated_at`

// SavePassport inserts or replaces a passport by id, generating an id when
// absent. Sensitive fields are encrypted before they reach the database.
func (s *Storage) SavePassport(ctx context.Context, p *models.Passport) (*models.Passport, error) {
	stored := *p
	now := time.Now()
	stored.UpdatedAt = now

	if stored.ID == "" {
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
	}

	exists, err := s.PassportExists(ctx, stored.ID)
	if err != nil {
		return nil, err
	}

	if err := s.upsertPassport(ctx, s.db, &stored, exists, now); err != nil {
		return nil, err
	}

	return &stored, nil
}

// upsertPassport выполняет insert или update внутри переданного db/tx.
// Используется и обычным Save, и батчевой транзакцией SaveBundle.
func (s *Storage) upsertPassport(ctx context.Context, q dbtx, p *models.Passport, exists bool, now time.Time) error {
	// Шифруем чувствительные поля перед записью
	number, err := s.cipher.EncryptString(p.PassportNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt passport number: %w", err)
	}
	fullName, err := s.cipher.EncryptString(p.FullName)
	if err != nil {
		return fmt.Errorf("failed to encrypt full name: %w", err)
	}
	dob, err := s.cipher.EncryptString(p.DateOfBirth)
	if err != nil {
		return fmt.Errorf("failed to encrypt date of birth: %w", err)
	}
	nationality, err := s.cipher.EncryptString(p.Nationality)
	if err != nil {
		return fmt.Errorf("failed to encrypt nationality: %w", err)
	}

	if exists {
		query := `
			UPDATE passports
			SET user_id = ?, passport_number = ?, full_name = ?, date_of_birth = ?,
			    nationality = ?, gender = ?, issue_date = ?, expiry_date = ?,
			    photo_ref = ?, is_primary = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = q.ExecContext(ctx, query,
			p.UserID, number, fullName, dob, nationality,
			p.Gender, p.IssueDate, p.ExpiryDate, p.PhotoRef,
			boolToInt(p.IsPrimary), now.Unix(), p.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update passport: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO passports (
			id, user_id, passport_number, full_name, date_of_birth,
			nationality, gender, issue_date, expiry_date, photo_ref,
			is_primary, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		p.ID, p.UserID, number, fullName, dob, nationality,
		p.Gender, p.IssueDate, p.ExpiryDate, p.PhotoRef,
		boolToInt(p.IsPrimary), p.CreatedAt.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert passport: %w", err)
	}
	return nil
}

// GetPassportByID retrieves a passport by id with sensitive fields decrypted.
// Returns ErrNotFound if the passport doesn't exist.
func (s *Storage) GetPassportByID(ctx context.Context, id string) (*models.Passport, error) {
	query := `SELECT ` + passportColumns + ` FROM passports WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	p, err := s.scanPassportRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetPassportsByUserID returns the user's passports, primary first, then
// newest first. Returns empty slice if the user has none.
func (s *Storage) GetPassportsByUserID(ctx context.Context, userID string) ([]*models.Passport, error) {
	query := `
		SELECT ` + passportColumns + `
		FROM passports
		WHERE user_id = ?
		ORDER BY is_primary DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query passports: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = cerr
		}
	}()

	var passports []*models.Passport
	for rows.Next() {
		p, serr := s.scanPassportRow(rows.Scan)
		if serr != nil {
			return nil, serr
		}
		passports = append(passports, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return passports, nil
}

// SetPrimaryPassport promotes one passport and demotes all the user's others
// inside a single transaction. A failure at any step rolls everything back,
// so the table can never hold two primaries.
func (s *Storage) SetPrimaryPassport(ctx context.Context, passportID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op после успешного Commit
	}()

	now := time.Now().Unix()

	// Сбрасываем флаг у всех паспортов пользователя
	_, err = tx.ExecContext(ctx,
		`UPDATE passports SET is_primary = 0, updated_at = ? WHERE user_id = ?`,
		now, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to demote passports: %w", err)
	}

	// Ставим флаг целевому паспорту; проверка user_id защищает от
	// продвижения чужого паспорта
	result, err := tx.ExecContext(ctx,
		`UPDATE passports SET is_primary = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		now, passportID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to promote passport: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit set primary: %w", err)
	}
	return nil
}

// DeletePassportsByUserID removes all of the user's passports.
func (s *Storage) DeletePassportsByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM passports WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete passports: %w", err)
	}
	return result.RowsAffected()
}

// PassportExists reports whether a passport with the given id exists.
func (s *Storage) PassportExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM passports WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check passport existence: %w", err)
	}
	return intToBool(exists), nil
}

// CountPassportsByUserID returns the number of passports the user has.
func (s *Storage) CountPassportsByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM passports WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count passports: %w", err)
	}
	return count, nil
}

// scanPassportRow reads one passport row and decrypts the sensitive columns.
// A decryption failure surfaces as crypto.ErrDecryptFailed, never as an
// empty field.
func (s *Storage) scanPassportRow(scan func(dest ...any) error) (*models.Passport, error) {
	p := &models.Passport{}
	var isPrimary int
	var createdAt, updatedAt int64

	err := scan(
		&p.ID, &p.UserID, &p.PassportNumber, &p.FullName, &p.DateOfBirth,
		&p.Nationality, &p.Gender, &p.IssueDate, &p.ExpiryDate, &p.PhotoRef,
		&isPrimary, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan passport: %w", err)
	}

	p.IsPrimary = intToBool(isPrimary)
	p.CreatedAt = unixToTime(createdAt)
	p.UpdatedAt = unixToTime(updatedAt)

	// Расшифровываем чувствительные поля
	if p.PassportNumber, err = s.cipher.DecryptString(p.PassportNumber); err != nil {
		return nil, fmt.Errorf("passport number: %w", err)
	}
	if p.FullName, err = s.cipher.DecryptString(p.FullName); err != nil {
		return nil, fmt.Errorf("full name: %w", err)
	}
	if p.DateOfBirth, err = s.cipher.DecryptString(p.DateOfBirth); err != nil {
		return nil, fmt.Errorf("date of birth: %w", err)
	}
	if p.Nationality, err = s.cipher.DecryptString(p.Nationality); err != nil {
		return nil, fmt.Errorf("nationality: %w", err)
	}

	return p, nil
}
