package dataaccess

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/validation"
)

// GetFundItems returns the user's proof-of-funds entries, newest first,
// cache-first.
func (s *Service) GetFundItems(ctx context.Context, userID string) ([]*models.FundItem, error) {
	key, ok := s.key(models.DataTypeFundItems, userID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if items, valid := cached.([]*models.FundItem); valid {
				return items, nil
			}
		}
	}

	items, err := s.repo.GetFundItemsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ok {
		s.cache.Put(key, items)
	}
	return items, nil
}

// SaveFundItem validates and persists one fund item, invalidates the user's
// cached items, then raises a funds data-change event.
func (s *Service) SaveFundItem(ctx context.Context, fi *models.FundItem, userID string) (*models.FundItem, error) {
	if fi != nil && fi.UserID == "" {
		fi.UserID = userID
	}
	if err := validation.ValidateFundItem(fi); err != nil {
		return nil, err
	}

	stored, err := s.repo.SaveFundItem(ctx, fi)
	if err != nil {
		s.invalidateFundItems(userID)
		return nil, err
	}

	s.invalidateFundItems(userID)
	s.raise(ctx, models.DataTypeFundItems, userID, []string{models.FieldFunds}, "")
	return stored, nil
}

// DeleteFundItem removes one fund item and raises a funds event.
func (s *Service) DeleteFundItem(ctx context.Context, id, userID string) error {
	if err := s.repo.DeleteFundItemByID(ctx, id); err != nil {
		return err
	}
	s.invalidateFundItems(userID)
	s.raise(ctx, models.DataTypeFundItems, userID, []string{models.FieldFunds}, "")
	return nil
}

// LinkFundItem attaches a fund item to an entry info for presentation
// grouping. The grouped items get their own dynamically keyed cache entry,
// dropped on any change to the link set.
func (s *Service) LinkFundItem(ctx context.Context, entryInfoID, fundItemID, userID string) error {
	if err := s.repo.LinkFundItem(ctx, entryInfoID, fundItemID); err != nil {
		return err
	}
	s.invalidateLinkedFundItems(userID, entryInfoID)
	return nil
}

// UnlinkFundItem detaches a fund item from an entry info.
func (s *Service) UnlinkFundItem(ctx context.Context, entryInfoID, fundItemID, userID string) error {
	if err := s.repo.UnlinkFundItem(ctx, entryInfoID, fundItemID); err != nil {
		return err
	}
	s.invalidateLinkedFundItems(userID, entryInfoID)
	return nil
}

// LinkedFundItems returns the fund items linked to one entry info, in link
// order, under a dynamic per-group cache key.
func (s *Service) LinkedFundItems(ctx context.Context, entryInfoID, userID string) ([]*models.FundItem, error) {
	key, ok := s.key(models.DataTypeFundItems, userID+":"+entryInfoID)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			if items, valid := cached.([]*models.FundItem); valid {
				return items, nil
			}
		}
	}

	ids, err := s.repo.LinkedFundItemIDs(ctx, entryInfoID)
	if err != nil {
		return nil, err
	}

	items := make([]*models.FundItem, 0, len(ids))
	for _, id := range ids {
		fi, err := s.repo.GetFundItemByID(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, fi)
	}

	if ok {
		s.cache.Put(key, items)
	}
	return items, nil
}

func (s *Service) invalidateFundItems(userID string) {
	if key, ok := s.key(models.DataTypeFundItems, userID); ok {
		s.cache.Invalidate(key)
	}
}

func (s *Service) invalidateLinkedFundItems(userID, entryInfoID string) {
	if key, ok := s.key(models.DataTypeFundItems, userID+":"+entryInfoID); ok {
		s.cache.Invalidate(key)
	}
}
