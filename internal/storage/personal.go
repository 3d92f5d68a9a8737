package storage

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
)

// PersonalInfoRepository defines persistence for the user's contact and
// demographic record. One logical record per user, upsert semantics.
type PersonalInfoRepository interface {
	// SavePersonalInfo upserts the user's personal info
	// (create if absent, else replace).
	SavePersonalInfo(ctx context.Context, pi *models.PersonalInfo) (*models.PersonalInfo, error)

	// GetPersonalInfoByID retrieves a record by id.
	// Returns ErrNotFound if it doesn't exist.
	GetPersonalInfoByID(ctx context.Context, id string) (*models.PersonalInfo, error)

	// GetPersonalInfoByUserID returns the user's single personal info record.
	// Returns ErrNotFound if the user never saved one.
	GetPersonalInfoByUserID(ctx context.Context, userID string) (*models.PersonalInfo, error)

	// DeletePersonalInfoByUserID removes the user's record,
	// returning the count (0 or 1).
	DeletePersonalInfoByUserID(ctx context.Context, userID string) (int64, error)

	// PersonalInfoExists reports whether a record with the given id exists.
	PersonalInfoExists(ctx context.Context, id string) (bool, error)

	// CountPersonalInfoByUserID returns 0 or 1.
	CountPersonalInfoByUserID(ctx context.Context, userID string) (int64, error)
}

// BundleRepository persists a passport and a personal info record inside one
// transaction. Used by the facade's batch update: either both writes commit
// or neither does.
type BundleRepository interface {
	SaveBundle(ctx context.Context, p *models.Passport, pi *models.PersonalInfo) error
}
