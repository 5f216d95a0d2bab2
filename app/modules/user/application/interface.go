package userservice

import (
	"context"

	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service defines the contract for user operations.
type Service interface {
	// CreateUser registers an account and publishes user.created.v1. A guest
	// request without a username gets a generated guest_<hex> name.
	CreateUser(ctx context.Context, req CreateUserRequest) (*userdb.User, error)

	GetUserByUUID(ctx context.Context, userUUID uuid.UUID) (*userdb.User, error)
	GetUserByUsername(ctx context.Context, username string) (*userdb.User, error)
	GetUserByDeviceID(ctx context.Context, deviceID string) (*userdb.User, error)

	UpdateDisplayName(ctx context.Context, userUUID uuid.UUID, displayName string) (*userdb.User, error)
	UpdatePINHash(ctx context.Context, userUUID uuid.UUID, pinHash string) error

	// RecordFailedLogin counts a failed PIN attempt and returns the new lock state.
	RecordFailedLogin(ctx context.Context, userUUID uuid.UUID) (userdomain.LockState, error)
	ResetFailedLogins(ctx context.Context, userUUID uuid.UUID) error
}

// CreateUserRequest describes a new account.
type CreateUserRequest struct {
	Username    string
	PINHash     string
	DeviceID    string
	DisplayName string
	Role        userdomain.Role
	Guest       bool
}
