package authservice

import (
	"context"
	"encoding/json"
	"time"

	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	"github.com/google/uuid"
)

// Service defines the contract for authentication.
type Service interface {
	RegisterWithPIN(ctx context.Context, username, pin, deviceID string) (*Session, error)
	LoginWithPIN(ctx context.Context, username, pin string) (*Session, error)
	ChangePIN(ctx context.Context, userUUID uuid.UUID, currentPIN, newPIN string) error

	// LoginWithDevice logs into the account bound to deviceID, creating a
	// guest account for unknown devices.
	LoginWithDevice(ctx context.Context, deviceID string) (*Session, error)

	BeginPasskeyRegistration(ctx context.Context, userUUID uuid.UUID) (*PasskeyChallenge, error)
	FinishPasskeyRegistration(ctx context.Context, userUUID uuid.UUID, sessionID string, response []byte) (string, error)
	BeginPasskeyLogin(ctx context.Context) (*PasskeyChallenge, error)
	FinishPasskeyLogin(ctx context.Context, sessionID string, response []byte) (*Session, error)

	// CleanupExpiredSessions drops passkey ceremonies older than their TTL.
	CleanupExpiredSessions(ctx context.Context) (int, error)

	ValidateToken(ctx context.Context, token string) (*authdomain.Claims, error)
}

// Session is an issued access token and the account it belongs to.
type Session struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        SessionUser `json:"user"`
	Created     bool        `json:"created"`
}

// SessionUser is the public view of the logged in account.
type SessionUser struct {
	UUID        uuid.UUID `json:"uuid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
}

// PasskeyChallenge carries WebAuthn options for the browser.
type PasskeyChallenge struct {
	SessionID string          `json:"session_id"`
	Options   json.RawMessage `json:"options"`
}
