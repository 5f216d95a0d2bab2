package authservice

import (
	"context"
	"errors"
	"strings"
	"time"

	authdb "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake User Service
// ------------------------

// FakeUserService keeps accounts in memory and records calls.
type FakeUserService struct {
	trace []string
	users map[uuid.UUID]*userdb.User
	now   func() time.Time
}

func NewFakeUserService(now func() time.Time) *FakeUserService {
	return &FakeUserService{trace: []string{}, users: map[uuid.UUID]*userdb.User{}, now: now}
}

func (f *FakeUserService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeUserService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeUserService) add(u *userdb.User) *userdb.User {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.Role == "" {
		u.Role = string(userdomain.RolePlayer)
	}
	f.users[u.UUID] = u
	return u
}

func (f *FakeUserService) CreateUser(_ context.Context, req userservice.CreateUserRequest) (*userdb.User, error) {
	f.record("CreateUser")
	name := req.Username
	if name == "" && req.Guest {
		name, _ = userdomain.GuestUsername()
	}
	if err := userdomain.ValidateUsername(name); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, name) {
			return nil, userdomain.ErrUsernameTaken
		}
		if req.DeviceID != "" && u.DeviceID != nil && *u.DeviceID == req.DeviceID {
			return nil, userdomain.ErrDeviceRegistered
		}
	}
	u := &userdb.User{Username: name}
	if req.PINHash != "" {
		u.PINHash = &req.PINHash
	}
	if req.DeviceID != "" {
		u.DeviceID = &req.DeviceID
	}
	return f.add(u), nil
}

func (f *FakeUserService) find(match func(*userdb.User) bool) (*userdb.User, error) {
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userdb.ErrNotFound
}

func (f *FakeUserService) GetUserByUUID(_ context.Context, userUUID uuid.UUID) (*userdb.User, error) {
	f.record("GetUserByUUID")
	return f.find(func(u *userdb.User) bool { return u.UUID == userUUID })
}

func (f *FakeUserService) GetUserByUsername(_ context.Context, username string) (*userdb.User, error) {
	f.record("GetUserByUsername")
	return f.find(func(u *userdb.User) bool { return strings.EqualFold(u.Username, username) })
}

func (f *FakeUserService) GetUserByDeviceID(_ context.Context, deviceID string) (*userdb.User, error) {
	f.record("GetUserByDeviceID")
	return f.find(func(u *userdb.User) bool { return u.DeviceID != nil && *u.DeviceID == deviceID })
}

func (f *FakeUserService) UpdateDisplayName(_ context.Context, userUUID uuid.UUID, displayName string) (*userdb.User, error) {
	f.record("UpdateDisplayName")
	return nil, errors.New("not implemented")
}

func (f *FakeUserService) UpdatePINHash(_ context.Context, userUUID uuid.UUID, pinHash string) error {
	f.record("UpdatePINHash")
	u, ok := f.users[userUUID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.PINHash = &pinHash
	return nil
}

func (f *FakeUserService) RecordFailedLogin(_ context.Context, userUUID uuid.UUID) (userdomain.LockState, error) {
	f.record("RecordFailedLogin")
	u, ok := f.users[userUUID]
	if !ok {
		return userdomain.LockState{}, userdb.ErrNotFound
	}
	state := userdomain.LockState{FailedAttempts: u.FailedAttempts, LockedUntil: u.LockedUntil}.RegisterFailure(f.now())
	u.FailedAttempts, u.LockedUntil = state.FailedAttempts, state.LockedUntil
	return state, nil
}

func (f *FakeUserService) ResetFailedLogins(_ context.Context, userUUID uuid.UUID) error {
	f.record("ResetFailedLogins")
	u, ok := f.users[userUUID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.FailedAttempts, u.LockedUntil = 0, nil
	return nil
}

var _ userservice.Service = (*FakeUserService)(nil)

// ------------------------
// Fake Passkey Repo
// ------------------------

type FakePasskeyRepo struct {
	sessions    map[string]authdb.PasskeySession
	credentials map[string]authdb.PasskeyCredential
}

func NewFakePasskeyRepo() *FakePasskeyRepo {
	return &FakePasskeyRepo{
		sessions:    map[string]authdb.PasskeySession{},
		credentials: map[string]authdb.PasskeyCredential{},
	}
}

func (f *FakePasskeyRepo) PutSession(_ context.Context, _ bun.IDB, session *authdb.PasskeySession) error {
	f.sessions[session.ID] = *session
	return nil
}

func (f *FakePasskeyRepo) GetSession(_ context.Context, _ bun.IDB, id string) (*authdb.PasskeySession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, authdb.ErrNotFound
	}
	return &s, nil
}

func (f *FakePasskeyRepo) DeleteSession(_ context.Context, _ bun.IDB, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *FakePasskeyRepo) DeleteExpiredSessions(_ context.Context, _ bun.IDB, now time.Time) (int, error) {
	n := 0
	for id, s := range f.sessions {
		if s.ExpiresAt.Before(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *FakePasskeyRepo) GetCredential(_ context.Context, _ bun.IDB, credentialID string) (*authdb.PasskeyCredential, error) {
	c, ok := f.credentials[credentialID]
	if !ok {
		return nil, authdb.ErrNotFound
	}
	return &c, nil
}

func (f *FakePasskeyRepo) ListCredentials(_ context.Context, _ bun.IDB, userUUID uuid.UUID) ([]authdb.PasskeyCredential, error) {
	var out []authdb.PasskeyCredential
	for _, c := range f.credentials {
		if c.UserUUID == userUUID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *FakePasskeyRepo) UpsertCredential(_ context.Context, _ bun.IDB, credential *authdb.PasskeyCredential) error {
	f.credentials[credential.CredentialID] = *credential
	return nil
}

var _ authdb.Repository = (*FakePasskeyRepo)(nil)

// ------------------------
// Fake WebAuthn
// ------------------------

type fakePasskeyProvider struct {
	credential *webauthn.Credential
	// loginHandle is the user handle the authenticator presents on login.
	loginHandle []byte
	createErr   error
}

func (f *fakePasskeyProvider) BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return &protocol.CredentialCreation{}, &webauthn.SessionData{UserID: user.WebAuthnID(), Challenge: "reg-challenge"}, nil
}

func (f *fakePasskeyProvider) CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.credential, nil
}

func (f *fakePasskeyProvider) BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{Challenge: "login-challenge"}, nil
}

func (f *fakePasskeyProvider) ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error) {
	user, err := handler(f.credential.ID, f.loginHandle)
	if err != nil {
		return nil, nil, err
	}
	return user, f.credential, nil
}

type fakePasskeyParser struct{}

func (fakePasskeyParser) ParseCredentialCreationResponseBytes(_ []byte) (*protocol.ParsedCredentialCreationData, error) {
	return &protocol.ParsedCredentialCreationData{}, nil
}

func (fakePasskeyParser) ParseCredentialRequestResponseBytes(_ []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return &protocol.ParsedCredentialAssertionData{}, nil
}
