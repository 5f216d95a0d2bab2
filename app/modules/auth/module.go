package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	authservice "github.com/Black-And-White-Club/dingleup/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/jwt"
	authdb "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

const sessionCleanupInterval = time.Minute

// Module represents the auth module.
type Module struct {
	service    authservice.Service
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewAuthMiddleware builds the bearer-token middleware from the JWT settings
// alone, so other modules can mount protected routes before the auth module
// exists.
func NewAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return authhandlers.AuthMiddleware(NewTokenValidator(cfg))
}

// NewTokenValidator checks access tokens without a database round trip.
func NewTokenValidator(cfg *config.Config) authhandlers.TokenValidator {
	return jwtValidator{provider: newJWTProvider(cfg)}
}

// AdminMiddleware rejects non-admin callers. Mount it after NewAuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return authhandlers.RequireAdmin(next)
}

type jwtValidator struct {
	provider authjwt.Provider
}

func (v jwtValidator) ValidateToken(_ context.Context, token string) (*authdomain.Claims, error) {
	return v.provider.ValidateToken(token)
}

func newJWTProvider(cfg *config.Config) authjwt.Provider {
	return authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer)
}

// NewAuthModule creates the auth module and mounts /api/auth.
func NewAuthModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	users userservice.Service,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "auth"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing auth module")

	var passkeys authservice.PasskeyProvider
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.WebAuthn.RPDisplayName,
		RPID:          cfg.WebAuthn.RPID,
		RPOrigins:     cfg.WebAuthn.RPOrigins,
	})
	if err != nil {
		logger.WarnContext(ctx, "Passkeys disabled: invalid WebAuthn configuration", slog.String("error", err.Error()))
	} else {
		passkeys = webAuthn
	}

	service := authservice.NewService(
		users,
		authdb.NewRepository(db),
		newJWTProvider(cfg),
		passkeys,
		authservice.Config{
			TokenTTL:   cfg.JWT.DefaultTTL,
			SessionTTL: authdomain.PasskeySessionTTL,
		},
		clock.RealClock{},
		logger,
		obs.Metrics,
		tracer,
	)

	handlers := authhandlers.NewAuthHandlers(service, logger, tracer)

	if httpRouter != nil {
		limiter := authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst)
		httpRouter.Route("/api/auth", func(r chi.Router) {
			r.Use(authhandlers.RateLimitMiddleware(limiter))

			r.Post("/register", handlers.HandleRegister)
			r.Post("/login", handlers.HandleLogin)
			r.Post("/device", handlers.HandleDeviceLogin)
			r.Post("/passkeys/login/begin", handlers.HandlePasskeyLoginBegin)
			r.Post("/passkeys/login/finish", handlers.HandlePasskeyLoginFinish)

			r.Group(func(r chi.Router) {
				r.Use(authhandlers.AuthMiddleware(service))
				r.Post("/pin", handlers.HandleChangePIN)
				r.Post("/passkeys/register/begin", handlers.HandlePasskeyRegisterBegin)
				r.Post("/passkeys/register/finish", handlers.HandlePasskeyRegisterFinish)
			})
		})
	}

	return &Module{
		service: service,
		logger:  logger,
	}, nil
}

// Run prunes expired passkey sessions until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting auth module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "Auth module goroutine stopped")
			return
		case <-ticker.C:
			if _, err := m.service.CleanupExpiredSessions(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Failed to clean up passkey sessions", slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops the auth module.
func (m *Module) Close() error {
	m.logger.Info("Stopping auth module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	m.logger.Info("Auth module stopped")
	return nil
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
