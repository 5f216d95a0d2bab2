package promodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for promo impression persistence.
type Repository interface {
	// ListShownSince returns the show times of a user after since, oldest first.
	ListShownSince(ctx context.Context, db bun.IDB, userUUID uuid.UUID, since time.Time) ([]time.Time, error)

	InsertImpression(ctx context.Context, db bun.IDB, userUUID uuid.UUID, shownAt time.Time) error

	// LockUser serialises impression writes of one user within a transaction.
	LockUser(ctx context.Context, db bun.IDB, userUUID uuid.UUID) error

	// DeleteBefore prunes impressions older than before.
	DeleteBefore(ctx context.Context, db bun.IDB, before time.Time) (int, error)
}
