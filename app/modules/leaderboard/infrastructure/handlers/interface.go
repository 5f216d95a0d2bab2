package leaderboardhandlers

import (
	"context"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/events"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
)

// Handlers defines the leaderboard event and HTTP handlers.
type Handlers interface {
	HandleGameCompleted(ctx context.Context, payload *events.GameCompletedPayloadV1) ([]handlerwrapper.Result, error)
	HandleLeaderboardInvalidated(ctx context.Context, payload *events.LeaderboardInvalidatedPayloadV1) ([]handlerwrapper.Result, error)

	HandleGetLeaderboard(w http.ResponseWriter, r *http.Request)
	HandleGetSnapshot(w http.ResponseWriter, r *http.Request)
}
