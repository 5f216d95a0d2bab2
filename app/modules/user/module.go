package user

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the user module.
type Module struct {
	UserService userservice.Service
	cancelFunc  context.CancelFunc
	logger      *slog.Logger
}

// NewUserModule creates and initializes a new user module.
func NewUserModule(
	ctx context.Context,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "user"))

	logger.InfoContext(ctx, "user.NewUserModule initializing")

	repo := userdb.NewRepository(db)
	service := userservice.NewUserService(repo, logger, obs.Metrics, obs.Tracer, db, eventBus, clock.RealClock{})
	handlers := userhandlers.NewUserHandlers(service, logger, obs.Tracer)

	if httpRouter != nil {
		httpRouter.Route("/api/users", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/me", handlers.HandleGetMe)
			r.Patch("/me", handlers.HandleUpdateMe)
		})
	}

	return &Module{
		UserService: service,
		logger:      logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting user module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "User module goroutine stopped")
}

// Close shuts down the user module.
func (m *Module) Close() error {
	m.logger.Info("Stopping user module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
