package promohandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	promoservice "github.com/Black-And-White-Club/dingleup/app/modules/promo/application"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// PromoHandlers implements the Handlers interface.
type PromoHandlers struct {
	service promoservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewPromoHandlers creates a new PromoHandlers instance.
func NewPromoHandlers(service promoservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &PromoHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleEligibility answers GET /eligibility?tz_offset=<minutes east of UTC>.
func (h *PromoHandlers) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PromoHandlers.HandleEligibility")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	offset := 0
	if raw := r.URL.Query().Get("tz_offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "tz_offset must be an integer")
			return
		}
		offset = v
	}

	decision, err := h.service.Evaluate(ctx, principal.UserUUID, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, decision)
}

// HandleShown records that the client displayed the popup.
func (h *PromoHandlers) HandleShown(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PromoHandlers.HandleShown")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		TZOffset int `json:"tz_offset"`
	}
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	decision, err := h.service.RecordShown(ctx, principal.UserUUID, body.TZOffset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, decision)
}

func (h *PromoHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, promodomain.ErrInvalidOffset):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, promodomain.ErrNotEligible):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Promo request failed", attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
