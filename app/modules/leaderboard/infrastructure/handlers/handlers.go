package leaderboardhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/events"
	leaderboardservice "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	"github.com/Black-And-White-Club/dingleup/internal/handlerwrapper"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardHandlers implements the Handlers interface.
type LeaderboardHandlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers instance.
func NewLeaderboardHandlers(service leaderboardservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &LeaderboardHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleGameCompleted drops the cached boards the finished game belongs to.
func (h *LeaderboardHandlers) HandleGameCompleted(ctx context.Context, payload *events.GameCompletedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "LeaderboardHandlers.HandleGameCompleted")
	defer span.End()

	if err := h.service.Invalidate(ctx, payload.CompletedAt); err != nil {
		return nil, fmt.Errorf("failed to invalidate leaderboards: %w", err)
	}
	return nil, nil
}

// HandleLeaderboardInvalidated evicts the announced boards from the local
// cache. Every instance receives it.
func (h *LeaderboardHandlers) HandleLeaderboardInvalidated(ctx context.Context, payload *events.LeaderboardInvalidatedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "LeaderboardHandlers.HandleLeaderboardInvalidated")
	defer span.End()

	keys := make([]string, 0, len(payload.Keys))
	for _, k := range payload.Keys {
		period, err := leaderboarddomain.ParsePeriod(k.Period)
		if err != nil || k.PeriodKey == "" {
			h.logger.WarnContext(ctx, "Skipping invalid leaderboard key",
				slog.String("period", k.Period),
				slog.String("period_key", k.PeriodKey),
			)
			continue
		}
		keys = append(keys, leaderboarddomain.CacheKey(period, k.PeriodKey))
	}
	if err := h.service.Evict(ctx, keys...); err != nil {
		return nil, fmt.Errorf("failed to evict leaderboards: %w", err)
	}
	return nil, nil
}

// HandleGetLeaderboard serves /{period}?key=.
func (h *LeaderboardHandlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleGetLeaderboard")
	defer span.End()

	period, err := leaderboarddomain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := uuid.Nil
	if p, ok := httpx.PrincipalFrom(ctx); ok {
		caller = p.UserUUID
	}

	view, err := h.service.GetLeaderboard(ctx, period, r.URL.Query().Get("key"), caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

// HandleGetSnapshot serves /{period}/history/{key}.
func (h *LeaderboardHandlers) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LeaderboardHandlers.HandleGetSnapshot")
	defer span.End()

	period, err := leaderboarddomain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	board, err := h.service.GetSnapshot(ctx, period, chi.URLParam(r, "key"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, leaderboarddomain.ErrInvalidKey), errors.Is(err, leaderboarddomain.ErrUnknownPeriod):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Leaderboard request failed", attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
