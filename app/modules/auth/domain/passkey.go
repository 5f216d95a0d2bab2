package authdomain

import (
	"errors"
	"time"
)

// PasskeySessionTTL bounds how long a begun ceremony may be finished.
const PasskeySessionTTL = 5 * time.Minute

// SessionKind distinguishes registration and login ceremonies.
type SessionKind string

const (
	SessionKindRegistration SessionKind = "registration"
	SessionKindLogin        SessionKind = "login"
)

var (
	ErrPasskeySessionNotFound = errors.New("passkey session not found")
	ErrPasskeySessionExpired  = errors.New("passkey session expired")
	ErrPasskeySessionKind     = errors.New("passkey session kind mismatch")
	ErrPasskeyUnavailable     = errors.New("passkeys are not configured")
	ErrPasskeyRejected        = errors.New("passkey verification failed")
)
