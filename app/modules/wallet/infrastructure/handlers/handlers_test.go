package wallethandlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Black-And-White-Club/dingleup/app/events"
	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newHandlers(svc *FakeWalletService) Handlers {
	return NewWalletHandlers(svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleUserCreated(t *testing.T) {
	tests := []struct {
		name      string
		payload   *events.UserCreatedPayloadV1
		ensureErr error
		wantErr   bool
		wantTrace []string
	}{
		{
			name:      "ensures wallet",
			payload:   &events.UserCreatedPayloadV1{UserUUID: uuid.NewString()},
			wantTrace: []string{"EnsureWallet"},
		},
		{
			name:      "invalid uuid is dropped",
			payload:   &events.UserCreatedPayloadV1{UserUUID: "not-a-uuid"},
			wantTrace: []string{},
		},
		{
			name:      "service error is retried",
			payload:   &events.UserCreatedPayloadV1{UserUUID: uuid.NewString()},
			ensureErr: errors.New("db down"),
			wantErr:   true,
			wantTrace: []string{"EnsureWallet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeWalletService()
			svc.EnsureWalletFunc = func(context.Context, uuid.UUID) (*walletservice.WalletView, error) {
				return &walletservice.WalletView{}, tt.ensureErr
			}

			res, err := newHandlers(svc).HandleUserCreated(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, res)
			assert.Equal(t, tt.wantTrace, svc.Trace())
		})
	}
}

func TestHandleGetWallet(t *testing.T) {
	user := uuid.New()
	svc := NewFakeWalletService()
	svc.GetWalletFunc = func(_ context.Context, id uuid.UUID) (*walletservice.WalletView, error) {
		return &walletservice.WalletView{UserUUID: id, Lives: 7, Countdown: "1:00"}, nil
	}
	h := newHandlers(svc)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleGetWallet(rec, httptest.NewRequest(http.MethodGet, "/api/wallet", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns wallet", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
		req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserUUID: user}))
		rec := httptest.NewRecorder()

		h.HandleGetWallet(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body walletservice.WalletView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, user, body.UserUUID)
		assert.Equal(t, 7, body.Lives)
		assert.Equal(t, "1:00", body.Countdown)
	})
}

func TestHandleActivateBooster(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "activates", body: `{"type":"MegaSpeed"}`, wantStatus: http.StatusOK},
		{name: "bad body", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "unknown booster", body: `{"type":"Turbo"}`, serviceErr: walletdomain.ErrUnknownBooster, wantStatus: http.StatusBadRequest},
		{name: "already active", body: `{"type":"MegaSpeed"}`, serviceErr: walletdomain.ErrBoosterAlreadyActive, wantStatus: http.StatusConflict},
		{name: "not enough coins", body: `{"type":"DingleSpeed"}`, serviceErr: walletdomain.ErrInsufficientCoins, wantStatus: http.StatusPaymentRequired},
		{name: "internal", body: `{"type":"MegaSpeed"}`, serviceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeWalletService()
			svc.ActivateBoosterFunc = func(_ context.Context, id uuid.UUID, bt walletdomain.BoosterType) (*walletservice.WalletView, error) {
				if tt.serviceErr != nil {
					return nil, tt.serviceErr
				}
				return &walletservice.WalletView{UserUUID: id}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/api/wallet/boosters", strings.NewReader(tt.body))
			req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserUUID: uuid.New()}))
			rec := httptest.NewRecorder()

			newHandlers(svc).HandleActivateBooster(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleListBoosters(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandlers(NewFakeWalletService()).HandleListBoosters(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 4)
	assert.Equal(t, "DoubleSpeed", body[0]["type"])
	assert.EqualValues(t, 60, body[0]["duration_minutes"])
}

func TestHandleGameCompleted(t *testing.T) {
	user := uuid.New()

	tests := []struct {
		name      string
		payload   *events.GameCompletedPayloadV1
		wantTrace []string
		wantReq   *walletservice.LedgerRequest
	}{
		{
			name:      "credits earned coins",
			payload:   &events.GameCompletedPayloadV1{GameID: "g1", UserUUID: user.String(), CoinsEarned: 12},
			wantTrace: []string{"Credit"},
			wantReq: &walletservice.LedgerRequest{
				UserUUID:       user,
				Coins:          12,
				Reason:         RewardReason,
				IdempotencyKey: "game:g1",
			},
		},
		{
			name:      "nothing earned",
			payload:   &events.GameCompletedPayloadV1{GameID: "g2", UserUUID: user.String()},
			wantTrace: []string{},
		},
		{
			name:      "invalid uuid is dropped",
			payload:   &events.GameCompletedPayloadV1{GameID: "g3", UserUUID: "nope", CoinsEarned: 3},
			wantTrace: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeWalletService()
			var got *walletservice.LedgerRequest
			svc.CreditFunc = func(_ context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error) {
				got = &req
				return &walletservice.WalletView{}, nil
			}

			_, err := newHandlers(svc).HandleGameCompleted(context.Background(), tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrace, svc.Trace())
			assert.Equal(t, tt.wantReq, got)
		})
	}
}
