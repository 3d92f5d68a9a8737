package storage

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
)

// FundItemRepository defines persistence for proof-of-funds entries.
// Many per user, independently addable and removable.
type FundItemRepository interface {
	// SaveFundItem inserts or replaces a fund item by id,
	// generating an id when absent.
	SaveFundItem(ctx context.Context, fi *models.FundItem) (*models.FundItem, error)

	// GetFundItemByID retrieves a fund item by id.
	// Returns ErrNotFound if it doesn't exist.
	GetFundItemByID(ctx context.Context, id string) (*models.FundItem, error)

	// GetFundItemsByUserID returns the user's fund items, newest first.
	GetFundItemsByUserID(ctx context.Context, userID string) ([]*models.FundItem, error)

	// DeleteFundItemByID removes one fund item.
	// Returns ErrNotFound if it doesn't exist.
	DeleteFundItemByID(ctx context.Context, id string) error

	// DeleteFundItemsByUserID removes all of the user's fund items,
	// returning the count.
	DeleteFundItemsByUserID(ctx context.Context, userID string) (int64, error)

	// FundItemExists reports whether a fund item with the given id exists.
	FundItemExists(ctx context.Context, id string) (bool, error)

	// CountFundItemsByUserID returns the number of fund items the user has.
	CountFundItemsByUserID(ctx context.Context, userID string) (int64, error)
}
