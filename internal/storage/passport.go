package storage

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
)

// PassportRepository defines persistence for passport records.
// Sensitive fields are encrypted at rest; implementations decrypt on read
// and never return ciphertext to callers.
type PassportRepository interface {
	// SavePassport inserts or replaces a passport by id, generating an id
	// when absent. Returns the stored record with timestamps filled in.
	SavePassport(ctx context.Context, p *models.Passport) (*models.Passport, error)

	// GetPassportByID retrieves a passport by id.
	// Returns ErrNotFound if the passport doesn't exist.
	GetPassportByID(ctx context.Context, id string) (*models.Passport, error)

	// GetPassportsByUserID returns the user's passports, primary first,
	// then newest first.
	GetPassportsByUserID(ctx context.Context, userID string) ([]*models.Passport, error)

	// SetPrimaryPassport promotes one passport to primary and demotes all the
	// user's others inside a single transaction. Returns ErrNotFound if the
	// target passport doesn't exist or belongs to another user.
	SetPrimaryPassport(ctx context.Context, passportID, userID string) error

	// DeletePassportsByUserID removes all of the user's passports,
	// returning the count.
	DeletePassportsByUserID(ctx context.Context, userID string) (int64, error)

	// PassportExists reports whether a passport with the given id exists.
	PassportExists(ctx context.Context, id string) (bool, error)

	// CountPassportsByUserID returns the number of passports the user has.
	CountPassportsByUserID(ctx context.Context, userID string) (int64, error)
}
