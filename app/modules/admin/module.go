package admin

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	adminservice "github.com/Black-And-White-Club/dingleup/app/modules/admin/application"
	adminhandlers "github.com/Black-And-White-Club/dingleup/app/modules/admin/infrastructure/handlers"
	admindb "github.com/Black-And-White-Club/dingleup/app/modules/admin/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/app/modules/auth"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the admin module.
type Module struct {
	service    adminservice.Service
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewAdminModule creates the admin module and mounts /api/admin behind the
// bearer-token and admin-role guards.
func NewAdminModule(
	ctx context.Context,
	_ *config.Config,
	obs *observability.Observability,
	questions adminservice.QuestionImporter,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "admin"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "admin.NewAdminModule initializing")

	service := adminservice.NewService(admindb.NewRepository(db), questions, logger, obs.Metrics, tracer)
	handlers := adminhandlers.NewAdminHandlers(service, clock.RealClock{}, logger, tracer)

	if httpRouter != nil {
		httpRouter.Route("/api/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(auth.AdminMiddleware)
			r.Get("/summary", handlers.HandleSummary)
			r.Get("/charts/games.png", handlers.HandleGamesChart)
			r.Get("/export.xlsx", handlers.HandleExport)
			r.Post("/questions/import", handlers.HandleImportQuestions)
		})
	}

	return &Module{
		service: service,
		logger:  logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting admin module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Admin module goroutine stopped")
}

// Close stops the admin module.
func (m *Module) Close() error {
	m.logger.Info("Stopping admin module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
