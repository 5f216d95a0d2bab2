package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	authhandlers "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/handlers"
	realtimeservice "github.com/Black-And-White-Club/dingleup/app/modules/realtime/application"
	realtimehandlers "github.com/Black-And-White-Club/dingleup/app/modules/realtime/infrastructure/handlers"
	realtimerouter "github.com/Black-And-White-Club/dingleup/app/modules/realtime/infrastructure/router"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
)

// Module represents the realtime module.
type Module struct {
	Hub        *realtimeservice.Hub
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewRealtimeModule creates the hub, mounts GET /ws and subscribes the
// forwarders on a broadcast subscription.
func NewRealtimeModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	validator authhandlers.TokenValidator,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "realtime"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "realtime.NewRealtimeModule initializing")

	hub := realtimeservice.NewHub(logger, realtimeservice.DefaultBufferSize)
	handlers := realtimehandlers.NewRealtimeHandlers(
		hub,
		validator,
		realtimehandlers.NewUpgrader(cfg.HTTP.AllowedOrigins),
		logger,
		tracer,
	)

	subscriber, err := eventBus.BroadcastSubscriber()
	if err != nil {
		return nil, fmt.Errorf("failed to create realtime subscriber: %w", err)
	}

	realtimeRouter := realtimerouter.NewRealtimeRouter(logger, router, subscriber, eventBus, obs.Metrics, tracer)
	if err := realtimeRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure realtime router: %w", err)
	}

	if httpRouter != nil {
		httpRouter.Get("/ws", handlers.HandleWebSocket)
	}

	return &Module{
		Hub:    hub,
		logger: logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting realtime module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Realtime module goroutine stopped")
}

// Close disconnects every client.
func (m *Module) Close() error {
	m.logger.Info("Stopping realtime module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.Hub.Close()
	return nil
}
