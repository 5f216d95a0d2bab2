package realtimehandlers

import (
	"context"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/events"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
)

// Handlers defines the websocket endpoint and the event forwarders.
type Handlers interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)

	HandleWalletUpdated(ctx context.Context, payload *events.WalletUpdatedPayloadV1) ([]handlerwrapper.Result, error)
	HandleBoosterExpired(ctx context.Context, payload *events.WalletBoosterPayloadV1) ([]handlerwrapper.Result, error)
	HandlePromoEligible(ctx context.Context, payload *events.PromoEligiblePayloadV1) ([]handlerwrapper.Result, error)
	HandleLeaderboardInvalidated(ctx context.Context, payload *events.LeaderboardInvalidatedPayloadV1) ([]handlerwrapper.Result, error)
}
