package realtimerouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/dingleup/app/events"
	realtimehandlers "github.com/Black-And-White-Club/dingleup/app/modules/realtime/infrastructure/handlers"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// RealtimeRouter handles Watermill handler registration for forwarded events.
type RealtimeRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	metrics    observability.OperationMetrics
	tracer     trace.Tracer
}

// NewRealtimeRouter creates a new RealtimeRouter.
func NewRealtimeRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *RealtimeRouter {
	return &RealtimeRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Configure subscribes the forwarders. The subscriber must deliver every
// message to every instance so each hub sees the events of its own clients.
func (r *RealtimeRouter) Configure(_ context.Context, handlers realtimehandlers.Handlers) error {
	registerHandler(r, events.WalletUpdatedV1, handlers.HandleWalletUpdated)
	registerHandler(r, events.WalletBoosterExpiredV1, handlers.HandleBoosterExpired)
	registerHandler(r, events.PromoEligibleV1, handlers.HandlePromoEligible)
	registerHandler(r, events.LeaderboardInvalidatedV1, handlers.HandleLeaderboardInvalidated)

	r.logger.Info("Realtime module handlers registered successfully",
		slog.Int("topics", 4),
	)
	return nil
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	r *RealtimeRouter,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "realtime." + topic

	r.router.AddNoPublisherHandler(
		handlerName,
		topic,
		r.subscriber,
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
