package userdomain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Role is a user's authorization role.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	return r == RolePlayer || r == RoleAdmin
}

const (
	MaxFailedAttempts = 5
	LockDuration      = 15 * time.Minute
	maxDisplayName    = 32
)

var (
	ErrInvalidUsername    = errors.New("username must be 3-20 letters, digits or underscores")
	ErrInvalidDisplayName = errors.New("display name must be 1-32 characters")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrDeviceRegistered   = errors.New("device already registered")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ValidateUsername checks the username format.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeDisplayName trims name and checks its length.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxDisplayName {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

// GuestUsername returns a random guest_<8 hex> name.
func GuestUsername() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "guest_" + hex.EncodeToString(b), nil
}

// LockState tracks consecutive PIN failures.
type LockState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// IsLocked reports whether the account is locked at now.
func (s LockState) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// RegisterFailure counts one failure. Reaching MaxFailedAttempts locks the
// account for LockDuration and resets the counter.
func (s LockState) RegisterFailure(now time.Time) LockState {
	if s.LockedUntil != nil && !now.Before(*s.LockedUntil) {
		s.LockedUntil = nil
	}
	s.FailedAttempts++
	if s.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(LockDuration)
		s.LockedUntil = &until
		s.FailedAttempts = 0
	}
	return s
}
