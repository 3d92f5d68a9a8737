package storage

import (
	"context"

	"github.com/iudanet/entrypack/internal/models"
)

// EntryInfoRepository defines persistence for entry preparation records.
// Metrics and documents are structs in the core and JSON strings only inside
// the storage layer.
type EntryInfoRepository interface {
	// SaveEntryInfo inserts or replaces an entry info by id,
	// generating an id when absent.
	SaveEntryInfo(ctx context.Context, ei *models.EntryInfo) (*models.EntryInfo, error)

	// GetEntryInfoByID retrieves an entry info by id.
	// Returns ErrNotFound if it doesn't exist.
	GetEntryInfoByID(ctx context.Context, id string) (*models.EntryInfo, error)

	// GetEntryInfosByUserID returns the user's entry infos, newest first.
	GetEntryInfosByUserID(ctx context.Context, userID string) ([]*models.EntryInfo, error)

	// UpdateEntryInfoStatus persists only the status column.
	// Returns ErrNotFound if the entry info doesn't exist.
	UpdateEntryInfoStatus(ctx context.Context, id string, status models.EntryStatus) error

	// LinkFundItem attaches a fund item to the entry info for presentation
	// grouping. Linking is independent of the row's own JSON blobs.
	LinkFundItem(ctx context.Context, entryInfoID, fundItemID string) error

	// UnlinkFundItem detaches a fund item from the entry info.
	UnlinkFundItem(ctx context.Context, entryInfoID, fundItemID string) error

	// LinkedFundItemIDs returns ids of fund items linked to the entry info.
	LinkedFundItemIDs(ctx context.Context, entryInfoID string) ([]string, error)

	// DeleteEntryInfosByUserID removes all of the user's entry infos and
	// their fund item links, returning the count of entry infos removed.
	DeleteEntryInfosByUserID(ctx context.Context, userID string) (int64, error)

	// EntryInfoExists reports whether an entry info with the given id exists.
	EntryInfoExists(ctx context.Context, id string) (bool, error)

	// CountEntryInfosByUserID returns the number of entry infos the user has.
	CountEntryInfosByUserID(ctx context.Context, userID string) (int64, error)
}

// WarningStore persists resubmission warnings. Kept separate from the
// relational store: warnings are session artifacts, cleared on acknowledge.
type WarningStore interface {
	// SaveWarning stores the warning for its entry info,
	// replacing any previous one.
	SaveWarning(ctx context.Context, w *models.ResubmissionWarning) error

	// GetWarningByEntryInfo returns the warning for one entry info.
	// Returns ErrNotFound if no warning is pending.
	GetWarningByEntryInfo(ctx context.Context, entryInfoID string) (*models.ResubmissionWarning, error)

	// GetWarningsByUser returns the user's warnings, newest first, capped at
	// limit (limit <= 0 means no cap).
	GetWarningsByUser(ctx context.Context, userID string, limit int) ([]*models.ResubmissionWarning, error)

	// ClearWarning removes the warning for the entry info once acknowledged.
	// Clearing an absent warning is not an error.
	ClearWarning(ctx context.Context, entryInfoID string) error

	// ClearUserWarnings removes all of the user's warnings,
	// returning the count.
	ClearUserWarnings(ctx context.Context, userID string) (int64, error)
}
