package game

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
	gamehandlers "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/handlers"
	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the game module.
type Module struct {
	GameService gameservice.Service
	cancelFunc  context.CancelFunc
	logger      *slog.Logger
}

// NewGameModule creates the game module and mounts /api/games.
func NewGameModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	wallet gameservice.Wallet,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "game"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "game.NewGameModule initializing")

	service := gameservice.NewGameService(
		gamedb.NewRepository(db),
		wallet,
		logger,
		obs.Metrics,
		tracer,
		db,
		eventBus,
		clock.RealClock{},
		gameservice.Config{
			QuestionsPerGame: cfg.Game.QuestionsPerGame,
			AnswerTimeLimit:  cfg.Game.AnswerTimeLimit,
		},
	)

	handlers := gamehandlers.NewGameHandlers(service, logger, tracer)

	if httpRouter != nil {
		httpRouter.Route("/api/games", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/categories", handlers.HandleListCategories)
			r.Post("/", handlers.HandleStartGame)
			r.Get("/{gameID}", handlers.HandleGetGame)
			r.Post("/{gameID}/answers", handlers.HandleAnswer)
			r.Post("/{gameID}/abandon", handlers.HandleAbandon)
		})
	}

	return &Module{
		GameService: service,
		logger:      logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting game module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Game module goroutine stopped")
}

// Close shuts down the game module.
func (m *Module) Close() error {
	m.logger.Info("Stopping game module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
