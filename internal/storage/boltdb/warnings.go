package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
)

// SaveWarning stores the warning for its entry info, replacing any previous
// one. One EntryInfo carries at most one pending warning, so the key is the
// entry info id.
func (s *Storage) SaveWarning(ctx context.Context, w *models.ResubmissionWarning) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketWarnings)
		if bucket == nil {
			return fmt.Errorf("warnings bucket not found")
		}

		// Сериализуем предупреждение в JSON
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal warning: %w", err)
		}

		if err := bucket.Put([]byte(w.EntryInfoID), data); err != nil {
			return fmt.Errorf("failed to save warning: %w", err)
		}

		return nil
	})
}

// GetWarningByEntryInfo returns the warning for one entry info.
// Returns ErrNotFound if no warning is pending.
func (s *Storage) GetWarningByEntryInfo(ctx context.Context, entryInfoID string) (*models.ResubmissionWarning, error) {
	var warning *models.ResubmissionWarning

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketWarnings)
		if bucket == nil {
			return fmt.Errorf("warnings bucket not found")
		}

		data := bucket.Get([]byte(entryInfoID))
		if data == nil {
			return storage.ErrNotFound
		}

		warning = &models.ResubmissionWarning{}
		if err := json.Unmarshal(data, warning); err != nil {
			return fmt.Errorf("failed to unmarshal warning: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return warning, nil
}

// GetWarningsByUser returns the user's warnings, newest first, capped at
// limit (limit <= 0 means no cap).
func (s *Storage) GetWarningsByUser(ctx context.Context, userID string, limit int) ([]*models.ResubmissionWarning, error) {
	var warnings []*models.ResubmissionWarning

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketWarnings)
		if bucket == nil {
			return fmt.Errorf("warnings bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			w := &models.ResubmissionWarning{}
			if err := json.Unmarshal(v, w); err != nil {
				return fmt.Errorf("failed to unmarshal warning: %w", err)
			}
			if w.UserID == userID {
				warnings = append(warnings, w)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Сортируем от новых к старым
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].CreatedAt.After(warnings[j].CreatedAt)
	})

	if limit > 0 && len(warnings) > limit {
		warnings = warnings[:limit]
	}

	return warnings, nil
}

// ClearWarning removes the warning for the entry info once acknowledged.
// Clearing an absent warning is not an error.
func (s *Storage) ClearWarning(ctx context.Context, entryInfoID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketWarnings)
		if bucket == nil {
			return fmt.Errorf("warnings bucket not found")
		}

		if err := bucket.Delete([]byte(entryInfoID)); err != nil {
			return fmt.Errorf("failed to clear warning: %w", err)
		}

		return nil
	})
}

// ClearUserWarnings removes all of the user's warnings, returning the count.
func (s *Storage) ClearUserWarnings(ctx context.Context, userID string) (int64, error) {
	var cleared int64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketWarnings)
		if bucket == nil {
			return fmt.Errorf("warnings bucket not found")
		}

		// Собираем ключи пользователя, удалять внутри ForEach нельзя
		var keys [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			w := &models.ResubmissionWarning{}
			if err := json.Unmarshal(v, w); err != nil {
				return fmt.Errorf("failed to unmarshal warning: %w", err)
			}
			if w.UserID == userID {
				key := make([]byte, len(k))
				copy(key, k)
				keys = append(keys, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := bucket.Delete(key); err != nil {
				return fmt.Errorf("failed to delete warning: %w", err)
			}
			cleared++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return cleared, nil
}
