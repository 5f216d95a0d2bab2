package leaderboardrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/dingleup/app/events"
	leaderboardhandlers "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/handlers"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardRouter handles Watermill handler registration for leaderboard events.
type LeaderboardRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	// broadcast reaches every instance; nil when the cache is shared.
	broadcast message.Subscriber
	publisher message.Publisher
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
}

// NewLeaderboardRouter creates a new LeaderboardRouter.
func NewLeaderboardRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	broadcast message.Subscriber,
	publisher message.Publisher,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardRouter {
	return &LeaderboardRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		broadcast:  broadcast,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *LeaderboardRouter) Configure(_ context.Context, handlers leaderboardhandlers.Handlers) error {
	registerHandler(r, r.subscriber, events.GameCompletedV1, handlers.HandleGameCompleted)
	if r.broadcast != nil {
		registerHandler(r, r.broadcast, events.LeaderboardInvalidatedV1, handlers.HandleLeaderboardInvalidated)
	}

	r.logger.Info("Leaderboard module handlers registered successfully",
		slog.String("game_completed_subject", events.GameCompletedV1),
		slog.Bool("local_eviction", r.broadcast != nil),
	)
	return nil
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	r *LeaderboardRouter,
	subscriber message.Subscriber,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "leaderboard." + topic

	r.router.AddNoPublisherHandler(
		handlerName,
		topic,
		subscriber,
		handlerwrapper.WrapTyped(
			handlerName,
			r.logger,
			r.tracer,
			r.publisher,
			r.metrics,
			handler,
		),
	)
}
