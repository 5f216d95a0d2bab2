package realtimehandlers

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/dingleup/app/events"
	authhandlers "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/handlers"
	realtimeservice "github.com/Black-And-White-Club/dingleup/app/modules/realtime/application"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

// RealtimeHandlers implements the Handlers interface.
type RealtimeHandlers struct {
	hub       *realtimeservice.Hub
	validator authhandlers.TokenValidator
	upgrader  *websocket.Upgrader
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewRealtimeHandlers creates a new RealtimeHandlers instance.
func NewRealtimeHandlers(
	hub *realtimeservice.Hub,
	validator authhandlers.TokenValidator,
	upgrader *websocket.Upgrader,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	if upgrader == nil {
		upgrader = NewUpgrader(nil)
	}
	return &RealtimeHandlers{
		hub:       hub,
		validator: validator,
		upgrader:  upgrader,
		logger:    logger,
		tracer:    tracer,
	}
}

func (h *RealtimeHandlers) HandleWalletUpdated(ctx context.Context, payload *events.WalletUpdatedPayloadV1) ([]handlerwrapper.Result, error) {
	h.toUser(ctx, "RealtimeHandlers.HandleWalletUpdated", events.WalletUpdatedV1, payload.UserUUID, payload)
	return nil, nil
}

func (h *RealtimeHandlers) HandleBoosterExpired(ctx context.Context, payload *events.WalletBoosterPayloadV1) ([]handlerwrapper.Result, error) {
	h.toUser(ctx, "RealtimeHandlers.HandleBoosterExpired", events.WalletBoosterExpiredV1, payload.UserUUID, payload)
	return nil, nil
}

func (h *RealtimeHandlers) HandlePromoEligible(ctx context.Context, payload *events.PromoEligiblePayloadV1) ([]handlerwrapper.Result, error) {
	h.toUser(ctx, "RealtimeHandlers.HandlePromoEligible", events.PromoEligibleV1, payload.UserUUID, payload)
	return nil, nil
}

// HandleLeaderboardInvalidated tells every client to refetch the listed boards.
func (h *RealtimeHandlers) HandleLeaderboardInvalidated(ctx context.Context, payload *events.LeaderboardInvalidatedPayloadV1) ([]handlerwrapper.Result, error) {
	_, span := h.tracer.Start(ctx, "RealtimeHandlers.HandleLeaderboardInvalidated")
	defer span.End()

	h.hub.Broadcast(realtimeservice.Frame{Topic: events.LeaderboardInvalidatedV1, Payload: payload})
	return nil, nil
}

// toUser forwards an event to the connections of one user. Users that are
// offline simply miss it.
func (h *RealtimeHandlers) toUser(ctx context.Context, spanName, topic, rawUUID string, payload any) {
	ctx, span := h.tracer.Start(ctx, spanName)
	defer span.End()

	userUUID, err := uuid.Parse(rawUUID)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid user UUID in event",
			attr.String("topic", topic),
			attr.String("user_uuid", rawUUID),
		)
		return
	}

	h.hub.SendToUser(userUUID, realtimeservice.Frame{Topic: topic, Payload: payload})
}
