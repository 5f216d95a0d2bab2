package walletrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/dingleup/app/events"
	wallethandlers "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/handlers"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// WalletRouter handles Watermill handler registration for wallet events.
type WalletRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	metrics    observability.OperationMetrics
	tracer     trace.Tracer
}

// NewWalletRouter creates a new WalletRouter.
func NewWalletRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) *WalletRouter {
	return &WalletRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *WalletRouter) Configure(_ context.Context, handlers wallethandlers.Handlers) error {
	registerHandler(r, events.UserCreatedV1, handlers.HandleUserCreated)
	registerHandler(r, events.GameCompletedV1, handlers.HandleGameCompleted)

	r.logger.Info("Wallet module handlers registered successfully",
		slog.String("user_created_subject", events.UserCreatedV1),
		slog.String("game_completed_subject", events.GameCompletedV1),
	)
	return nil
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	r *WalletRouter,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "wallet." + topic

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
