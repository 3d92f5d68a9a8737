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

const fundItemColumns = `id, user_id, kind, amount, currency, description,
	       photo_ref, created_at, updated_at`

// SaveFundItem inserts or replaces a fund item by id, generating an id when absent.
func (s *Storage) SaveFundItem(ctx context.Context, fi *models.FundItem) (*models.FundItem, error) {
	stored := *fi
	now := time.Now()
	stored.UpdatedAt = now

	exists := false
	if stored.ID == "" {
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
	} else {
		var err error
		exists, err = s.FundItemExists(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
	}

	if exists {
		query := `
			UPDATE fund_items
			SET kind = ?, amount = ?, currency = ?, description = ?,
			    photo_ref = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := s.db.ExecContext(ctx, query,
			stored.Kind, stored.Amount, stored.Currency, stored.Description,
			stored.PhotoRef, now.Unix(), stored.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update fund item: %w", err)
		}
		return &stored, nil
	}

	query := `
		INSERT INTO fund_items (
			id, user_id, kind, amount, currency, description,
			photo_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		stored.ID, stored.UserID, stored.Kind, stored.Amount,
		stored.Currency, stored.Description, stored.PhotoRef,
		stored.CreatedAt.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert fund item: %w", err)
	}

	return &stored, nil
}

// GetFundItemByID retrieves a fund item by id.
// Returns ErrNotFound if it doesn't exist.
func (s *Storage) GetFundItemByID(ctx context.Context, id string) (*models.FundItem, error) {
	query := `SELECT ` + fundItemColumns + ` FROM fund_items WHERE id = ?`
	return scanFundItemRow(s.db.QueryRowContext(ctx, query, id).Scan)
}

// GetFundItemsByUserID returns the user's fund items, newest first.
func (s *Storage) GetFundItemsByUserID(ctx context.Context, userID string) ([]*models.FundItem, error) {
	query := `
		SELECT ` + fundItemColumns + `
		FROM fund_items
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund items: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = cerr
		}
	}()

	var items []*models.FundItem
	for rows.Next() {
		fi, serr := scanFundItemRow(rows.Scan)
		if serr != nil {
			return nil, serr
		}
		items = append(items, fi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// DeleteFundItemByID removes one fund item.
// Returns ErrNotFound if it doesn't exist.
func (s *Storage) DeleteFundItemByID(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fund_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fund item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteFundItemsByUserID removes all of the user's fund items.
func (s *Storage) DeleteFundItemsByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fund_items WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete fund items: %w", err)
	}
	return result.RowsAffected()
}

// FundItemExists reports whether a fund item with the given id exists.
func (s *Storage) FundItemExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM fund_items WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check fund item existence: %w", err)
	}
	return intToBool(exists), nil
}

// CountFundItemsByUserID returns the number of fund items the user has.
func (s *Storage) CountFundItemsByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fund_items WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fund items: %w", err)
	}
	return count, nil
}

func scanFundItemRow(scan func(dest ...any) error) (*models.FundItem, error) {
	fi := &models.FundItem{}
	var createdAt, updatedAt int64

	err := scan(
		&fi.ID, &fi.UserID, &fi.Kind, &fi.Amount, &fi.Currency,
		&fi.Description, &fi.PhotoRef, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan fund item: %w", err)
	}

	fi.CreatedAt = unixToTime(createdAt)
	fi.UpdatedAt = unixToTime(updatedAt)
	return fi, nil
}
