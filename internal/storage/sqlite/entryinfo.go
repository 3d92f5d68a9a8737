package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

const entryInfoColumns = `id, user_id, destination, passport_id, personal_info_id,
	       travel_info_id, status, metrics, documents, created_at, updated_at`

// SaveEntryInfo inserts or replaces an entry info by id, generating an id
// when absent. Metrics and documents are serialized to JSON only here, at
// the storage boundary.
func (s *Storage) SaveEntryInfo(ctx context.Context, ei *models.EntryInfo) (*models.EntryInfo, error) {
	stored := *ei
	now := time.Now()
	stored.UpdatedAt = now

	if stored.Status == "" {
		stored.Status = models.EntryStatusIncomplete
	}

	exists := false
	if stored.ID == "" {
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
	} else {
		var err error
		exists, err = s.EntryInfoExists(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
	}

	metrics, err := json.Marshal(stored.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics: %w", err)
	}
	documents, err := json.Marshal(stored.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal documents: %w", err)
	}

	if exists {
		query := `
			UPDATE entry_infos
			SET destination = ?, passport_id = ?, personal_info_id = ?,
			    travel_info_id = ?, status = ?, metrics = ?, documents = ?,
			    updated_at = ?
			WHERE id = ?
		`
		_, err := s.db.ExecContext(ctx, query,
			stored.Destination, stored.PassportID, stored.PersonalInfoID,
			stored.TravelInfoID, stored.Status, string(metrics), string(documents),
			now.Unix(), stored.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update entry info: %w", err)
		}
		return &stored, nil
	}

	query := `
		INSERT INTO entry_infos (
			id, user_id, destination, passport_id, personal_info_id,
			travel_info_id, status, metrics, documents, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		stored.ID, stored.UserID, stored.Destination,
		stored.PassportID, stored.PersonalInfoID, stored.TravelInfoID,
		stored.Status, string(metrics), string(documents),
		stored.CreatedAt.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry info: %w", err)
	}

	return &stored, nil
}

// GetEntryInfoByID retrieves an entry info by id.
// Returns ErrNotFound if it doesn't exist.
func (s *Storage) GetEntryInfoByID(ctx context.Context, id string) (*models.EntryInfo, error) {
	query := `SELECT ` + entryInfoColumns + ` FROM entry_infos WHERE id = ?`
	return scanEntryInfoRow(s.db.QueryRowContext(ctx, query, id).Scan)
}

// GetEntryInfosByUserID returns the user's entry infos, newest first.
func (s *Storage) GetEntryInfosByUserID(ctx context.Context, userID string) ([]*models.EntryInfo, error) {
	query := `
		SELECT ` + entryInfoColumns + `
		FROM entry_infos
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry infos: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = cerr
		}
	}()

	var records []*models.EntryInfo
	for rows.Next() {
		ei, serr := scanEntryInfoRow(rows.Scan)
		if serr != nil {
			return nil, serr
		}
		records = append(records, ei)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// UpdateEntryInfoStatus persists only the status column.
// Returns ErrNotFound if the entry info doesn't exist.
func (s *Storage) UpdateEntryInfoStatus(ctx context.Context, id string, status models.EntryStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE entry_infos SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry info status: %w", err)
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

// LinkFundItem attaches a fund item to the entry info.
// Linking twice is a no-op.
func (s *Storage) LinkFundItem(ctx context.Context, entryInfoID, fundItemID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entry_info_fund_items (entry_info_id, fund_item_id, created_at)
		 VALUES (?, ?, ?)`,
		entryInfoID, fundItemID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to link fund item: %w", err)
	}
	return nil
}

// UnlinkFundItem detaches a fund item from the entry info.
func (s *Storage) UnlinkFundItem(ctx context.Context, entryInfoID, fundItemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entry_info_fund_items WHERE entry_info_id = ? AND fund_item_id = ?`,
		entryInfoID, fundItemID,
	)
	if err != nil {
		return fmt.Errorf("failed to unlink fund item: %w", err)
	}
	return nil
}

// LinkedFundItemIDs returns ids of fund items linked to the entry info,
// oldest link first.
func (s *Storage) LinkedFundItemIDs(ctx context.Context, entryInfoID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fund_item_id FROM entry_info_fund_items
		 WHERE entry_info_id = ? ORDER BY created_at ASC`,
		entryInfoID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund item links: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = cerr
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fund item link: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}

// DeleteEntryInfosByUserID removes all of the user's entry infos together
// with their fund item links.
func (s *Storage) DeleteEntryInfosByUserID(ctx context.Context, userID string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entry_info_fund_items
		 WHERE entry_info_id IN (SELECT id FROM entry_infos WHERE user_id = ?)`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete fund item links: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM entry_infos WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entry infos: %w", err)
	}
	return result.RowsAffected()
}

// EntryInfoExists reports whether an entry info with the given id exists.
func (s *Storage) EntryInfoExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM entry_infos WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entry info existence: %w", err)
	}
	return intToBool(exists), nil
}

// CountEntryInfosByUserID returns the number of entry infos the user has.
func (s *Storage) CountEntryInfosByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entry_infos WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entry infos: %w", err)
	}
	return count, nil
}

func scanEntryInfoRow(scan func(dest ...any) error) (*models.EntryInfo, error) {
	ei := &models.EntryInfo{}
	var metrics, documents string
	var createdAt, updatedAt int64

	err := scan(
		&ei.ID, &ei.UserID, &ei.Destination, &ei.PassportID, &ei.PersonalInfoID,
		&ei.TravelInfoID, &ei.Status, &metrics, &documents, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan entry info: %w", err)
	}

	if err := json.Unmarshal([]byte(metrics), &ei.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(documents), &ei.Documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}

	ei.CreatedAt = unixToTime(createdAt)
	ei.UpdatedAt = unixToTime(updatedAt)
	return ei, nil
}
