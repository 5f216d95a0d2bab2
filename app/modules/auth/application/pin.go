package authservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
)

// RegisterWithPIN creates a named account protected by a 6 digit PIN.
func (s *service) RegisterWithPIN(ctx context.Context, username, pin, deviceID string) (session *Session, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.RegisterWithPIN")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "RegisterWithPIN", start, err) }(time.Now())

	hash, err := authdomain.HashPIN(pin)
	if err != nil {
		return nil, err
	}
	if deviceID != "" {
		if deviceID, err = authdomain.NormalizeDeviceID(deviceID); err != nil {
			return nil, err
		}
	}

	user, err := s.users.CreateUser(ctx, userservice.CreateUserRequest{
		Username: username,
		PINHash:  hash,
		DeviceID: deviceID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Registered account with PIN",
		attr.ExtractCorrelationID(ctx),
		attr.UserUUID(user.UUID),
	)
	return s.issue(user, true)
}

// LoginWithPIN verifies username and PIN, enforcing the failed attempt lock.
func (s *service) LoginWithPIN(ctx context.Context, username, pin string) (session *Session, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.LoginWithPIN")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "LoginWithPIN", start, err) }(time.Now())

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, userdb.ErrNotFound) {
		return nil, authdomain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.verifyPIN(ctx, user, pin); err != nil {
		return nil, err
	}
	return s.issue(user, false)
}

// ChangePIN replaces the PIN after verifying the current one. Accounts without
// a PIN (device guests) may set one without a current PIN.
func (s *service) ChangePIN(ctx context.Context, userUUID uuid.UUID, currentPIN, newPIN string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ChangePIN")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "ChangePIN", start, err) }(time.Now())

	hash, err := authdomain.HashPIN(newPIN)
	if err != nil {
		return err
	}

	user, err := s.users.GetUserByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if user.PINHash != nil {
		if err := s.verifyPIN(ctx, user, currentPIN); err != nil {
			return err
		}
	}
	return s.users.UpdatePINHash(ctx, userUUID, hash)
}

func (s *service) verifyPIN(ctx context.Context, user *userdb.User, pin string) error {
	now := s.clock.Now()
	lock := userdomain.LockState{FailedAttempts: user.FailedAttempts, LockedUntil: user.LockedUntil}
	if lock.IsLocked(now) {
		return authdomain.ErrAccountLocked
	}

	if user.PINHash == nil || !authdomain.ComparePIN(*user.PINHash, pin) {
		state, err := s.users.RecordFailedLogin(ctx, user.UUID)
		if err != nil {
			return fmt.Errorf("failed to record failed login: %w", err)
		}
		if state.IsLocked(now) {
			return authdomain.ErrAccountLocked
		}
		return authdomain.ErrInvalidCredentials
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetFailedLogins(ctx, user.UUID); err != nil {
			return fmt.Errorf("failed to reset failed logins: %w", err)
		}
	}
	return nil
}

// LoginWithDevice resolves a device id to its account, registering a guest on
// first sight.
func (s *service) LoginWithDevice(ctx context.Context, deviceID string) (session *Session, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.LoginWithDevice")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "LoginWithDevice", start, err) }(time.Now())

	deviceID, err = authdomain.NormalizeDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByDeviceID(ctx, deviceID)
	if err == nil {
		return s.issue(user, false)
	}
	if !errors.Is(err, userdb.ErrNotFound) {
		return nil, err
	}

	user, err = s.users.CreateUser(ctx, userservice.CreateUserRequest{Guest: true, DeviceID: deviceID})
	if errors.Is(err, userdomain.ErrDeviceRegistered) {
		// Lost a race with a concurrent first login from the same device.
		user, err = s.users.GetUserByDeviceID(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		return s.issue(user, false)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Registered guest account for device",
		attr.ExtractCorrelationID(ctx),
		attr.UserUUID(user.UUID),
		attr.String("username", user.Username),
	)
	return s.issue(user, true)
}

// ValidateToken parses an access token into claims.
func (s *service) ValidateToken(ctx context.Context, token string) (*authdomain.Claims, error) {
	_, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	claims, err := s.jwtProvider.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func roleOf(user *userdb.User) userdomain.Role {
	role := userdomain.Role(user.Role)
	if !role.IsValid() {
		return userdomain.RolePlayer
	}
	return role
}
