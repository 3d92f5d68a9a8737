package storage

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
)

// TravelInfoRepository defines persistence for per-destination trip details.
// Records are keyed by (userID, destination).
type TravelInfoRepository interface {
	// SaveTravelInfo inserts or replaces a travel info record by id,
	// generating an id when absent. Returns ErrConflict when inserting a
	// second record for the same (userID, destination) pair.
	SaveTravelInfo(ctx context.Context, ti *models.TravelInfo) (*models.TravelInfo, error)

	// GetTravelInfoByID retrieves a record by id.
	// Returns ErrNotFound if it doesn't exist.
	GetTravelInfoByID(ctx context.Context, id string) (*models.TravelInfo, error)

	// GetTravelInfoByUserID returns the user's travel records, newest first.
	GetTravelInfoByUserID(ctx context.Context, userID string) ([]*models.TravelInfo, error)

	// GetTravelInfoByDestination returns the record for one destination.
	// Returns ErrNotFound if the user has no trip to that destination.
	GetTravelInfoByDestination(ctx context.Context, userID, destination string) (*models.TravelInfo, error)

	// DeleteTravelInfoByUserID removes all of the user's travel records,
	// returning the count.
	DeleteTravelInfoByUserID(ctx context.Context, userID string) (int64, error)

	// TravelInfoExists reports whether a record with the given id exists.
	TravelInfoExists(ctx context.Context, id string) (bool, error)

	// CountTravelInfoByUserID returns the number of travel records the user has.
	CountTravelInfoByUserID(ctx context.Context, userID string) (int64, error)
}
