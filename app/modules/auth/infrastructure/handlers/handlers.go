package authhandlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	authservice "github.com/Black-And-White-Club/dingleup/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/dingleup/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/jwt"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

const maxCredentialBytes = 64 << 10

// Handlers serves the authentication endpoints.
type Handlers interface {
	HandleRegister(w http.ResponseWriter, r *http.Request)
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleDeviceLogin(w http.ResponseWriter, r *http.Request)
	HandleChangePIN(w http.ResponseWriter, r *http.Request)
	HandlePasskeyRegisterBegin(w http.ResponseWriter, r *http.Request)
	HandlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request)
	HandlePasskeyLoginBegin(w http.ResponseWriter, r *http.Request)
	HandlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request)
}

// AuthHandlers implements the Handlers interface.
type AuthHandlers struct {
	service authservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandlers creates a new AuthHandlers.
func NewAuthHandlers(service authservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &AuthHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

type pinRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
	DeviceID string `json:"device_id,omitempty"`
}

func (h *AuthHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleRegister")
	defer span.End()

	var req pinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.RegisterWithPIN(ctx, req.Username, req.PIN, req.DeviceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleLogin")
	defer span.End()

	var req pinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.LoginWithPIN(ctx, req.Username, req.PIN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandlers) HandleDeviceLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleDeviceLogin")
	defer span.End()

	var req struct {
		DeviceID string `json:"device_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.LoginWithDevice(ctx, req.DeviceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if session.Created {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, session)
}

func (h *AuthHandlers) HandleChangePIN(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleChangePIN")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		CurrentPIN string `json:"current_pin"`
		NewPIN     string `json:"new_pin"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ChangePIN(ctx, principal.UserUUID, req.CurrentPIN, req.NewPIN); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandlers) HandlePasskeyRegisterBegin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandlePasskeyRegisterBegin")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	challenge, err := h.service.BeginPasskeyRegistration(ctx, principal.UserUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, challenge)
}

// passkeyFinishRequest wraps the browser's credential JSON untouched so the
// WebAuthn parser sees the original bytes.
type passkeyFinishRequest struct {
	SessionID  string          `json:"session_id"`
	Credential json.RawMessage `json:"credential"`
}

func decodeFinish(r *http.Request) (passkeyFinishRequest, error) {
	var req passkeyFinishRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBytes))
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	if req.SessionID == "" || len(req.Credential) == 0 {
		return req, errors.New("session_id and credential are required")
	}
	return req, nil
}

func (h *AuthHandlers) HandlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandlePasskeyRegisterFinish")
	defer span.End()

	principal, ok := httpx.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decodeFinish(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	credentialID, err := h.service.FinishPasskeyRegistration(ctx, principal.UserUUID, req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"credential_id": credentialID})
}

func (h *AuthHandlers) HandlePasskeyLoginBegin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandlePasskeyLoginBegin")
	defer span.End()

	challenge, err := h.service.BeginPasskeyLogin(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, challenge)
}

func (h *AuthHandlers) HandlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandlePasskeyLoginFinish")
	defer span.End()

	req, err := decodeFinish(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.FinishPasskeyLogin(ctx, req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authdomain.ErrInvalidPIN),
		errors.Is(err, authdomain.ErrInvalidDeviceID),
		errors.Is(err, userdomain.ErrInvalidUsername),
		errors.Is(err, userdomain.ErrInvalidDisplayName),
		errors.Is(err, authdomain.ErrPasskeySessionExpired),
		errors.Is(err, authdomain.ErrPasskeySessionKind):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrPasskeyRejected),
		errors.Is(err, authjwt.ErrInvalidToken),
		errors.Is(err, authjwt.ErrExpiredToken):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, authdomain.ErrAccountLocked):
		httpx.WriteError(w, http.StatusLocked, err.Error())
	case errors.Is(err, userdomain.ErrUsernameTaken), errors.Is(err, userdomain.ErrDeviceRegistered):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, authdomain.ErrPasskeySessionNotFound), errors.Is(err, userdb.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, authdomain.ErrPasskeyUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Auth request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.Error(err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
