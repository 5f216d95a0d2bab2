package gamehandlers

import (
	"errors"
	"log/slog"
	"net/http"

	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// GameHandlers implements the Handlers interface.
type GameHandlers struct {
	service gameservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewGameHandlers creates a new GameHandlers instance.
func NewGameHandlers(service gameservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &GameHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *GameHandlers) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHandlers.HandleStartGame")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		Category string `json:"category"`
	}
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	view, err := h.service.StartGame(ctx, principal.UserUUID, body.Category)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view)
}

func (h *GameHandlers) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHandlers.HandleGetGame")
	defer span.End()

	principal, gameID, ok := h.gameRequest(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetGame(ctx, principal.UserUUID, gameID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *GameHandlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHandlers.HandleAnswer")
	defer span.End()

	principal, gameID, ok := h.gameRequest(w, r)
	if !ok {
		return
	}

	var body struct {
		QuestionIndex *int `json:"question_index"`
		Choice        *int `json:"choice"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.QuestionIndex == nil || body.Choice == nil {
		httpx.WriteError(w, http.StatusBadRequest, "question_index and choice are required")
		return
	}

	out, err := h.service.AnswerQuestion(ctx, gameservice.AnswerRequest{
		UserUUID:      principal.UserUUID,
		GameID:        gameID,
		QuestionIndex: *body.QuestionIndex,
		Choice:        *body.Choice,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *GameHandlers) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHandlers.HandleAbandon")
	defer span.End()

	principal, gameID, ok := h.gameRequest(w, r)
	if !ok {
		return
	}

	view, err := h.service.AbandonGame(ctx, principal.UserUUID, gameID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *GameHandlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// gameRequest reads the caller and the {gameID} path parameter.
func (h *GameHandlers) gameRequest(w http.ResponseWriter, r *http.Request) (httpx.Principal, uuid.UUID, bool) {
	principal, ok := httpx.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return httpx.Principal{}, uuid.Nil, false
	}
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid game id")
		return httpx.Principal{}, uuid.Nil, false
	}
	return principal, gameID, true
}

func (h *GameHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gamedomain.ErrGameNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gamedomain.ErrWrongQuestion), errors.Is(err, gamedomain.ErrInvalidChoice):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamedomain.ErrGameFinished):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, gamedomain.ErrNotEnoughQuestions):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, walletdomain.ErrNoLives):
		httpx.WriteError(w, http.StatusPaymentRequired, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Game request failed", attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
