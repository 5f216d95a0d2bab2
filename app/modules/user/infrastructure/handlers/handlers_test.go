package userhandlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

// FakeUserService implements userservice.Service with per-method overrides.
type FakeUserService struct {
	userservice.Service

	GetUserByUUIDFunc     func(ctx context.Context, userUUID uuid.UUID) (*userdb.User, error)
	UpdateDisplayNameFunc func(ctx context.Context, userUUID uuid.UUID, displayName string) (*userdb.User, error)
}

func (f *FakeUserService) GetUserByUUID(ctx context.Context, userUUID uuid.UUID) (*userdb.User, error) {
	return f.GetUserByUUIDFunc(ctx, userUUID)
}

func (f *FakeUserService) UpdateDisplayName(ctx context.Context, userUUID uuid.UUID, displayName string) (*userdb.User, error) {
	return f.UpdateDisplayNameFunc(ctx, userUUID, displayName)
}

func TestUserHandlers(t *testing.T) {
	userUUID := uuid.New()
	stored := &userdb.User{UUID: userUUID, Username: "player_one", Role: "player", CreatedAt: time.Unix(0, 0).UTC()}

	tests := []struct {
		name       string
		method     string
		body       string
		principal  bool
		svc        *FakeUserService
		wantStatus int
		wantBody   string
	}{
		{
			name:       "get requires principal",
			method:     http.MethodGet,
			svc:        &FakeUserService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:      "get returns profile",
			method:    http.MethodGet,
			principal: true,
			svc: &FakeUserService{GetUserByUUIDFunc: func(context.Context, uuid.UUID) (*userdb.User, error) {
				return stored, nil
			}},
			wantStatus: http.StatusOK,
			wantBody:   `"username":"player_one"`,
		},
		{
			name:      "get missing user",
			method:    http.MethodGet,
			principal: true,
			svc: &FakeUserService{GetUserByUUIDFunc: func(context.Context, uuid.UUID) (*userdb.User, error) {
				return nil, userdb.ErrNotFound
			}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:      "patch invalid display name",
			method:    http.MethodPatch,
			body:      `{"display_name":""}`,
			principal: true,
			svc: &FakeUserService{UpdateDisplayNameFunc: func(context.Context, uuid.UUID, string) (*userdb.User, error) {
				return nil, userdomain.ErrInvalidDisplayName
			}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "patch malformed body",
			method:     http.MethodPatch,
			body:       `{`,
			principal:  true,
			svc:        &FakeUserService{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandlers(tt.svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))

			req := httptest.NewRequest(tt.method, "/api/users/me", strings.NewReader(tt.body))
			if tt.principal {
				req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserUUID: userUUID}))
			}
			rec := httptest.NewRecorder()

			if tt.method == http.MethodGet {
				h.HandleGetMe(rec, req)
			} else {
				h.HandleUpdateMe(rec, req)
			}

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.NotContains(t, rec.Body.String(), "pin_hash")
		})
	}
}
