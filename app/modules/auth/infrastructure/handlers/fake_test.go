package authhandlers

import (
	"context"

	authservice "github.com/Black-And-White-Club/dingleup/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	"github.com/google/uuid"
)

// FakeAuthService implements authservice.Service with per-method overrides.
type FakeAuthService struct {
	trace []string

	RegisterWithPINFunc    func(ctx context.Context, username, pin, deviceID string) (*authservice.Session, error)
	LoginWithPINFunc       func(ctx context.Context, username, pin string) (*authservice.Session, error)
	ChangePINFunc          func(ctx context.Context, userUUID uuid.UUID, currentPIN, newPIN string) error
	LoginWithDeviceFunc    func(ctx context.Context, deviceID string) (*authservice.Session, error)
	FinishPasskeyLoginFunc func(ctx context.Context, sessionID string, response []byte) (*authservice.Session, error)
	ValidateTokenFunc      func(ctx context.Context, token string) (*authdomain.Claims, error)
}

func (f *FakeAuthService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeAuthService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeAuthService) RegisterWithPIN(ctx context.Context, username, pin, deviceID string) (*authservice.Session, error) {
	f.record("RegisterWithPIN")
	return f.RegisterWithPINFunc(ctx, username, pin, deviceID)
}

func (f *FakeAuthService) LoginWithPIN(ctx context.Context, username, pin string) (*authservice.Session, error) {
	f.record("LoginWithPIN")
	return f.LoginWithPINFunc(ctx, username, pin)
}

func (f *FakeAuthService) ChangePIN(ctx context.Context, userUUID uuid.UUID, currentPIN, newPIN string) error {
	f.record("ChangePIN")
	return f.ChangePINFunc(ctx, userUUID, currentPIN, newPIN)
}

func (f *FakeAuthService) LoginWithDevice(ctx context.Context, deviceID string) (*authservice.Session, error) {
	f.record("LoginWithDevice")
	return f.LoginWithDeviceFunc(ctx, deviceID)
}

func (f *FakeAuthService) BeginPasskeyRegistration(ctx context.Context, userUUID uuid.UUID) (*authservice.PasskeyChallenge, error) {
	f.record("BeginPasskeyRegistration")
	return &authservice.PasskeyChallenge{SessionID: "s1"}, nil
}

func (f *FakeAuthService) FinishPasskeyRegistration(ctx context.Context, userUUID uuid.UUID, sessionID string, response []byte) (string, error) {
	f.record("FinishPasskeyRegistration")
	return "cred", nil
}

func (f *FakeAuthService) BeginPasskeyLogin(ctx context.Context) (*authservice.PasskeyChallenge, error) {
	f.record("BeginPasskeyLogin")
	return &authservice.PasskeyChallenge{SessionID: "s2"}, nil
}

func (f *FakeAuthService) FinishPasskeyLogin(ctx context.Context, sessionID string, response []byte) (*authservice.Session, error) {
	f.record("FinishPasskeyLogin")
	return f.FinishPasskeyLoginFunc(ctx, sessionID, response)
}

func (f *FakeAuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	f.record("CleanupExpiredSessions")
	return 0, nil
}

func (f *FakeAuthService) ValidateToken(ctx context.Context, token string) (*authdomain.Claims, error) {
	f.record("ValidateToken")
	return f.ValidateTokenFunc(ctx, token)
}

var _ authservice.Service = (*FakeAuthService)(nil)
