package wallethandlers

import (
	"context"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/events"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
)

// Handlers defines the wallet event and HTTP handlers.
type Handlers interface {
	HandleUserCreated(ctx context.Context, payload *events.UserCreatedPayloadV1) ([]handlerwrapper.Result, error)
	HandleGameCompleted(ctx context.Context, payload *events.GameCompletedPayloadV1) ([]handlerwrapper.Result, error)

	HandleGetWallet(w http.ResponseWriter, r *http.Request)
	HandleListBoosters(w http.ResponseWriter, r *http.Request)
	HandleActivateBooster(w http.ResponseWriter, r *http.Request)
}
