package userdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for user persistence.
type Repository interface {
	// CreateUser inserts a user. Unique violations surface as
	// ErrUsernameTaken or ErrDeviceTaken.
	CreateUser(ctx context.Context, db bun.IDB, user *User) error

	GetByUUID(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error)
	GetByDeviceID(ctx context.Context, db bun.IDB, deviceID string) (*User, error)
	// GetByUUIDForUpdate locks the row until db's transaction ends.
	GetByUUIDForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*User, error)

	UpdateDisplayName(ctx context.Context, db bun.IDB, userUUID uuid.UUID, displayName string) error
	UpdatePINHash(ctx context.Context, db bun.IDB, userUUID uuid.UUID, pinHash string) error

	// UpdateLockState stores the failed attempt counter and lock expiry.
	UpdateLockState(ctx context.Context, db bun.IDB, userUUID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}
