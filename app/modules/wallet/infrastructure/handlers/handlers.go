package wallethandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/events"
	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RewardReason tags ledger rows for coins won in games.
const RewardReason = "game_reward"

// WalletHandlers implements the Handlers interface.
type WalletHandlers struct {
	service walletservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewWalletHandlers creates a new WalletHandlers instance.
func NewWalletHandlers(service walletservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &WalletHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleUserCreated gives every new account a wallet.
func (h *WalletHandlers) HandleUserCreated(ctx context.Context, payload *events.UserCreatedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "WalletHandlers.HandleUserCreated")
	defer span.End()

	userUUID, err := uuid.Parse(payload.UserUUID)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid user UUID in user.created",
			attr.String("user_uuid", payload.UserUUID),
			attr.Error(err),
		)
		return nil, nil
	}

	if _, err := h.service.EnsureWallet(ctx, userUUID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil, nil
}

// HandleGameCompleted credits the coins earned in a finished game. The
// ledger key game:<id> makes redelivery a no-op.
func (h *WalletHandlers) HandleGameCompleted(ctx context.Context, payload *events.GameCompletedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "WalletHandlers.HandleGameCompleted")
	defer span.End()

	if payload.CoinsEarned <= 0 {
		return nil, nil
	}

	userUUID, err := uuid.Parse(payload.UserUUID)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid user UUID in game.completed",
			attr.String("user_uuid", payload.UserUUID),
			attr.String("game_id", payload.GameID),
		)
		return nil, nil
	}

	_, err = h.service.Credit(ctx, walletservice.LedgerRequest{
		UserUUID:       userUUID,
		Coins:          payload.CoinsEarned,
		Reason:         RewardReason,
		IdempotencyKey: "game:" + payload.GameID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit game reward: %w", err)
	}
	return nil, nil
}

func (h *WalletHandlers) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.service.GetWallet(ctx, principal.UserUUID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WalletHandlers) HandleListBoosters(w http.ResponseWriter, _ *http.Request) {
	type boosterResponse struct {
		Type            walletdomain.BoosterType `json:"type"`
		Multiplier      int                      `json:"multiplier"`
		MaxLives        int                      `json:"max_lives"`
		DurationMinutes int                      `json:"duration_minutes"`
		Price           int64                    `json:"price"`
	}
	specs := h.service.ListBoosters()
	out := make([]boosterResponse, 0, len(specs))
	for _, s := range specs {
		out = append(out, boosterResponse{
			Type:            s.Type,
			Multiplier:      s.Multiplier,
			MaxLives:        s.MaxLives,
			DurationMinutes: int(s.Duration.Minutes()),
			Price:           s.Price,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *WalletHandlers) HandleActivateBooster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		Type string `json:"type"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.ActivateBooster(ctx, principal.UserUUID, walletdomain.BoosterType(body.Type))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WalletHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, walletdomain.ErrUnknownBooster):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, walletdomain.ErrBoosterAlreadyActive):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, walletdomain.ErrInsufficientCoins), errors.Is(err, walletdomain.ErrNoLives):
		httpx.WriteError(w, http.StatusPaymentRequired, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Wallet request failed", attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
