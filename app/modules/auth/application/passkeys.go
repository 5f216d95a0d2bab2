package authservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	authdb "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// BeginPasskeyRegistration starts a resident-key registration for a logged in user.
func (s *service) BeginPasskeyRegistration(ctx context.Context, userUUID uuid.UUID) (challenge *PasskeyChallenge, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.BeginPasskeyRegistration")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "BeginPasskeyRegistration", start, err) }(time.Now())

	if s.passkeys == nil {
		return nil, authdomain.ErrPasskeyUnavailable
	}

	user, err := s.users.GetUserByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	pkUser, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return nil, err
	}

	options := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	}
	if len(pkUser.credentials) > 0 {
		options = append(options, webauthn.WithExclusions(webauthn.Credentials(pkUser.credentials).CredentialDescriptors()))
	}

	creation, data, err := s.passkeys.BeginRegistration(pkUser, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to begin passkey registration: %w", err)
	}
	return s.storeChallenge(ctx, authdomain.SessionKindRegistration, &userUUID, data, creation)
}

// FinishPasskeyRegistration verifies the attestation and stores the credential.
// It returns the encoded credential id.
func (s *service) FinishPasskeyRegistration(ctx context.Context, userUUID uuid.UUID, sessionID string, response []byte) (credentialID string, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.FinishPasskeyRegistration")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "FinishPasskeyRegistration", start, err) }(time.Now())

	if s.passkeys == nil {
		return "", authdomain.ErrPasskeyUnavailable
	}

	stored, data, err := s.loadSession(ctx, sessionID, authdomain.SessionKindRegistration)
	if err != nil {
		return "", err
	}
	if stored.UserUUID == nil || *stored.UserUUID != userUUID {
		return "", authdomain.ErrPasskeySessionNotFound
	}

	user, err := s.users.GetUserByUUID(ctx, userUUID)
	if err != nil {
		return "", err
	}
	pkUser, err := s.loadPasskeyUser(ctx, user)
	if err != nil {
		return "", err
	}

	parsed, err := s.parser.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authdomain.ErrPasskeyRejected, err)
	}
	credential, err := s.passkeys.CreateCredential(pkUser, *data, parsed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authdomain.ErrPasskeyRejected, err)
	}

	if err := s.storeCredential(ctx, userUUID, *credential, false); err != nil {
		return "", err
	}
	s.dropSession(ctx, sessionID)

	s.logger.InfoContext(ctx, "Registered passkey",
		attr.ExtractCorrelationID(ctx),
		attr.UserUUID(userUUID),
	)
	return encodeCredentialID(credential.ID), nil
}

// BeginPasskeyLogin starts a discoverable (usernameless) login.
func (s *service) BeginPasskeyLogin(ctx context.Context) (challenge *PasskeyChallenge, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.BeginPasskeyLogin")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "BeginPasskeyLogin", start, err) }(time.Now())

	if s.passkeys == nil {
		return nil, authdomain.ErrPasskeyUnavailable
	}

	assertion, data, err := s.passkeys.BeginDiscoverableLogin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin passkey login: %w", err)
	}
	return s.storeChallenge(ctx, authdomain.SessionKindLogin, nil, data, assertion)
}

// FinishPasskeyLogin validates the assertion and issues an access token.
func (s *service) FinishPasskeyLogin(ctx context.Context, sessionID string, response []byte) (session *Session, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.FinishPasskeyLogin")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "FinishPasskeyLogin", start, err) }(time.Now())

	if s.passkeys == nil {
		return nil, authdomain.ErrPasskeyUnavailable
	}

	_, data, err := s.loadSession(ctx, sessionID, authdomain.SessionKindLogin)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authdomain.ErrPasskeyRejected, err)
	}

	validated, credential, err := s.passkeys.ValidatePasskeyLogin(s.discoverableUserHandler(ctx), *data, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authdomain.ErrPasskeyRejected, err)
	}
	pkUser, ok := validated.(*passkeyUser)
	if !ok {
		return nil, errors.New("passkey user type mismatch")
	}

	if err := s.storeCredential(ctx, pkUser.user.UUID, *credential, true); err != nil {
		return nil, err
	}
	s.dropSession(ctx, sessionID)

	return s.issue(pkUser.user, false)
}

// CleanupExpiredSessions deletes passkey sessions past their expiry.
func (s *service) CleanupExpiredSessions(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CleanupExpiredSessions")
	defer span.End()

	n, err := s.repo.DeleteExpiredSessions(ctx, nil, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Deleted expired passkey sessions", attr.Int("count", n))
	}
	return n, nil
}

func (s *service) storeChallenge(ctx context.Context, kind authdomain.SessionKind, userUUID *uuid.UUID, data *webauthn.SessionData, options any) (*PasskeyChallenge, error) {
	if data == nil {
		return nil, errors.New("session data is required")
	}
	sessionJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode passkey session: %w", err)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode passkey options: %w", err)
	}

	now := s.clock.Now().UTC()
	session := &authdb.PasskeySession{
		ID:          uuid.NewString(),
		Kind:        string(kind),
		UserUUID:    userUUID,
		SessionJSON: string(sessionJSON),
		ExpiresAt:   now.Add(s.config.SessionTTL),
		CreatedAt:   now,
	}
	if err := s.repo.PutSession(ctx, nil, session); err != nil {
		return nil, err
	}
	return &PasskeyChallenge{SessionID: session.ID, Options: optionsJSON}, nil
}

func (s *service) loadSession(ctx context.Context, sessionID string, kind authdomain.SessionKind) (*authdb.PasskeySession, *webauthn.SessionData, error) {
	stored, err := s.repo.GetSession(ctx, nil, sessionID)
	if errors.Is(err, authdb.ErrNotFound) {
		return nil, nil, authdomain.ErrPasskeySessionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if stored.Kind != string(kind) {
		return nil, nil, authdomain.ErrPasskeySessionKind
	}
	if !s.clock.Now().Before(stored.ExpiresAt) {
		s.dropSession(ctx, sessionID)
		return nil, nil, authdomain.ErrPasskeySessionExpired
	}

	var data webauthn.SessionData
	if err := json.Unmarshal([]byte(stored.SessionJSON), &data); err != nil {
		return nil, nil, fmt.Errorf("failed to decode passkey session: %w", err)
	}
	return stored, &data, nil
}

// dropSession deletes a consumed session; failures only leave it to expire.
func (s *service) dropSession(ctx context.Context, sessionID string) {
	if err := s.repo.DeleteSession(ctx, nil, sessionID); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete passkey session",
			attr.String("session_id", sessionID),
			attr.Error(err),
		)
	}
}

func (s *service) storeCredential(ctx context.Context, userUUID uuid.UUID, credential webauthn.Credential, used bool) error {
	credentialID := encodeCredentialID(credential.ID)
	now := s.clock.Now().UTC()

	createdAt := now
	existing, err := s.repo.GetCredential(ctx, nil, credentialID)
	switch {
	case err == nil:
		if existing.UserUUID != userUUID {
			return authdomain.ErrPasskeyRejected
		}
		createdAt = existing.CreatedAt
	case errors.Is(err, authdb.ErrNotFound):
		if used {
			return fmt.Errorf("%w: unknown credential", authdomain.ErrPasskeyRejected)
		}
	default:
		return err
	}

	credentialJSON, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("failed to encode passkey credential: %w", err)
	}
	var lastUsed *time.Time
	if used {
		lastUsed = &now
	}
	return s.repo.UpsertCredential(ctx, nil, &authdb.PasskeyCredential{
		CredentialID:   credentialID,
		UserUUID:       userUUID,
		CredentialJSON: string(credentialJSON),
		CreatedAt:      createdAt,
		UpdatedAt:      now,
		LastUsedAt:     lastUsed,
	})
}

// passkeyUser adapts an account to webauthn.User. The user handle is the
// account UUID's 16 raw bytes.
type passkeyUser struct {
	user        *userdb.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte {
	id := u.user.UUID
	return id[:]
}

func (u *passkeyUser) WebAuthnName() string {
	return u.user.Username
}

func (u *passkeyUser) WebAuthnDisplayName() string {
	if u.user.DisplayName != nil {
		return *u.user.DisplayName
	}
	return u.user.Username
}

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

func (s *service) loadPasskeyUser(ctx context.Context, user *userdb.User) (*passkeyUser, error) {
	records, err := s.repo.ListCredentials(ctx, nil, user.UUID)
	if err != nil {
		return nil, err
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal([]byte(record.CredentialJSON), &credential); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", record.CredentialID, err)
		}
		credentials = append(credentials, credential)
	}
	return &passkeyUser{user: user, credentials: credentials}, nil
}

func (s *service) discoverableUserHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		userUUID, err := uuid.FromBytes(userHandle)
		if err != nil {
			return nil, fmt.Errorf("invalid user handle: %w", err)
		}
		user, err := s.users.GetUserByUUID(ctx, userUUID)
		if err != nil {
			return nil, err
		}
		return s.loadPasskeyUser(ctx, user)
	}
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
