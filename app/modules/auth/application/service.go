package authservice

import (
	"context"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/jwt"
	authdb "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "AuthService"

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// Config holds the configuration for the auth service.
type Config struct {
	TokenTTL   time.Duration
	SessionTTL time.Duration
}

// PasskeyProvider is the subset of *webauthn.WebAuthn the service uses.
type PasskeyProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error)
}

// PasskeyParser decodes browser credential responses.
type PasskeyParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type protocolParser struct{}

func (protocolParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (protocolParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// service implements the Service interface.
type service struct {
	users       userservice.Service
	repo        authdb.Repository
	jwtProvider authjwt.Provider
	passkeys    PasskeyProvider
	parser      PasskeyParser
	config      Config
	clock       clock.Clock
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	tracer      trace.Tracer
}

// NewService creates a new auth service. A nil passkeys provider disables
// the passkey endpoints with ErrPasskeyUnavailable.
func NewService(
	users userservice.Service,
	repo authdb.Repository,
	jwtProvider authjwt.Provider,
	passkeys PasskeyProvider,
	config Config,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) Service {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = authdomain.PasskeySessionTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &service{
		users:       users,
		repo:        repo,
		jwtProvider: jwtProvider,
		passkeys:    passkeys,
		parser:      protocolParser{},
		config:      config,
		clock:       clk,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}
}

// record tracks an operation outcome in the shared operation metrics.
func (s *service) record(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperationAttempt(ctx, operation, serviceName)
	s.metrics.RecordOperationDuration(ctx, operation, serviceName, time.Since(start))
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, operation, serviceName)
		return
	}
	s.metrics.RecordOperationSuccess(ctx, operation, serviceName)
}

// issue signs an access token for user.
func (s *service) issue(user *userdb.User, created bool) (*Session, error) {
	claims := &authdomain.Claims{
		UserUUID: user.UUID,
		Username: user.Username,
		Role:     roleOf(user),
	}
	token, expiresAt, err := s.jwtProvider.GenerateToken(claims, s.config.TokenTTL)
	if err != nil {
		return nil, err
	}
	session := &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Created:     created,
		User: SessionUser{
			UUID:     user.UUID,
			Username: user.Username,
			Role:     user.Role,
		},
	}
	if user.DisplayName != nil {
		session.User.DisplayName = *user.DisplayName
	}
	return session, nil
}
