package userservice

import (
	"context"
	"errors"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// guestNameAttempts bounds retries when a generated guest name collides.
const guestNameAttempts = 3

type userResult = results.OperationResult[*userdb.User, error]

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*userdb.User, error) {
	result, err := withTelemetry(s, ctx, "CreateUser", req.Username, func(ctx context.Context) (userResult, error) {
		user, failure := s.newUser(req)
		if failure != nil {
			return results.FailureResult[*userdb.User, error](failure), nil
		}

		attempts := 1
		if req.Guest && req.Username == "" {
			attempts = guestNameAttempts
		}
		for i := 0; ; i++ {
			err := s.repo.CreateUser(ctx, nil, user)
			switch {
			case err == nil:
				return results.SuccessResult[*userdb.User, error](user), nil
			case errors.Is(err, userdb.ErrDeviceTaken):
				return results.FailureResult[*userdb.User, error](userdomain.ErrDeviceRegistered), nil
			case errors.Is(err, userdb.ErrUsernameTaken):
				if i+1 >= attempts {
					return results.FailureResult[*userdb.User, error](userdomain.ErrUsernameTaken), nil
				}
				name, genErr := userdomain.GuestUsername()
				if genErr != nil {
					return userResult{}, genErr
				}
				user.Username = name
			default:
				return userResult{}, err
			}
		}
	})
	user, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	payload := events.UserCreatedPayloadV1{
		UserUUID:  user.UUID.String(),
		Username:  user.Username,
		Guest:     req.Guest,
		CreatedAt: user.CreatedAt,
	}
	if err := eventbus.PublishJSON(ctx, s.publisher, events.UserCreatedV1, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish user created event",
			attr.ExtractCorrelationID(ctx),
			attr.UserUUID(user.UUID),
			attr.Error(err),
		)
	}
	return user, nil
}

func (s *UserService) newUser(req CreateUserRequest) (*userdb.User, error) {
	username := req.Username
	if username == "" && req.Guest {
		name, err := userdomain.GuestUsername()
		if err != nil {
			return nil, err
		}
		username = name
	}
	if err := userdomain.ValidateUsername(username); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = userdomain.RolePlayer
	}
	if !role.IsValid() {
		return nil, errors.New("invalid role")
	}

	user := &userdb.User{
		UUID:     uuid.New(),
		Username: username,
		Role:     string(role),
	}
	if req.PINHash != "" {
		user.PINHash = &req.PINHash
	}
	if req.DeviceID != "" {
		user.DeviceID = &req.DeviceID
	}
	if req.DisplayName != "" {
		name, err := userdomain.NormalizeDisplayName(req.DisplayName)
		if err != nil {
			return nil, err
		}
		user.DisplayName = &name
	}
	return user, nil
}

func (s *UserService) GetUserByUUID(ctx context.Context, userUUID uuid.UUID) (*userdb.User, error) {
	return s.lookup(ctx, "GetUserByUUID", userUUID.String(), func(ctx context.Context) (*userdb.User, error) {
		return s.repo.GetByUUID(ctx, nil, userUUID)
	})
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*userdb.User, error) {
	return s.lookup(ctx, "GetUserByUsername", username, func(ctx context.Context) (*userdb.User, error) {
		return s.repo.GetByUsername(ctx, nil, username)
	})
}

func (s *UserService) GetUserByDeviceID(ctx context.Context, deviceID string) (*userdb.User, error) {
	return s.lookup(ctx, "GetUserByDeviceID", deviceID, func(ctx context.Context) (*userdb.User, error) {
		return s.repo.GetByDeviceID(ctx, nil, deviceID)
	})
}

// lookup reports a missing user as a failure result carrying userdb.ErrNotFound.
func (s *UserService) lookup(ctx context.Context, operation, identifier string, get func(context.Context) (*userdb.User, error)) (*userdb.User, error) {
	result, err := withTelemetry(s, ctx, operation, identifier, func(ctx context.Context) (userResult, error) {
		user, err := get(ctx)
		if errors.Is(err, userdb.ErrNotFound) {
			return results.FailureResult[*userdb.User, error](err), nil
		}
		if err != nil {
			return userResult{}, err
		}
		return results.SuccessResult[*userdb.User, error](user), nil
	})
	return unwrap(result, err)
}

func (s *UserService) UpdateDisplayName(ctx context.Context, userUUID uuid.UUID, displayName string) (*userdb.User, error) {
	result, err := withTelemetry(s, ctx, "UpdateDisplayName", userUUID.String(), func(ctx context.Context) (userResult, error) {
		name, err := userdomain.NormalizeDisplayName(displayName)
		if err != nil {
			return results.FailureResult[*userdb.User, error](err), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (userResult, error) {
			if err := s.repo.UpdateDisplayName(ctx, db, userUUID, name); err != nil {
				if errors.Is(err, userdb.ErrNotFound) {
					return results.FailureResult[*userdb.User, error](err), nil
				}
				return userResult{}, err
			}
			user, err := s.repo.GetByUUID(ctx, db, userUUID)
			if err != nil {
				return userResult{}, err
			}
			return results.SuccessResult[*userdb.User, error](user), nil
		})
	})
	return unwrap(result, err)
}

func (s *UserService) UpdatePINHash(ctx context.Context, userUUID uuid.UUID, pinHash string) error {
	result, err := withTelemetry(s, ctx, "UpdatePINHash", userUUID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		if err := s.repo.UpdatePINHash(ctx, nil, userUUID, pinHash); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[bool, error](err), nil
			}
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	})
	_, err = unwrap(result, err)
	return err
}

func (s *UserService) RecordFailedLogin(ctx context.Context, userUUID uuid.UUID) (userdomain.LockState, error) {
	result, err := withTelemetry(s, ctx, "RecordFailedLogin", userUUID.String(), func(ctx context.Context) (results.OperationResult[userdomain.LockState, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[userdomain.LockState, error], error) {
			user, err := s.repo.GetByUUIDForUpdate(ctx, db, userUUID)
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[userdomain.LockState, error](err), nil
			}
			if err != nil {
				return results.OperationResult[userdomain.LockState, error]{}, err
			}

			state := userdomain.LockState{FailedAttempts: user.FailedAttempts, LockedUntil: user.LockedUntil}
			state = state.RegisterFailure(s.clock.Now())
			if err := s.repo.UpdateLockState(ctx, db, userUUID, state.FailedAttempts, state.LockedUntil); err != nil {
				return results.OperationResult[userdomain.LockState, error]{}, err
			}
			if state.LockedUntil != nil {
				s.logger.WarnContext(ctx, "Account locked after failed PIN attempts",
					attr.UserUUID(userUUID),
					attr.Time("locked_until", *state.LockedUntil),
				)
			}
			return results.SuccessResult[userdomain.LockState, error](state), nil
		})
	})
	return unwrap(result, err)
}

func (s *UserService) ResetFailedLogins(ctx context.Context, userUUID uuid.UUID) error {
	result, err := withTelemetry(s, ctx, "ResetFailedLogins", userUUID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		var none *time.Time
		if err := s.repo.UpdateLockState(ctx, nil, userUUID, 0, none); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[bool, error](err), nil
			}
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	})
	_, err = unwrap(result, err)
	return err
}
