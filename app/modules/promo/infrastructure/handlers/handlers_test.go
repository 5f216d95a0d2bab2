package promohandlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	promoservice "github.com/Black-And-White-Club/dingleup/app/modules/promo/application"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

type FakePromoService struct {
	promoservice.Service

	EvaluateFunc    func(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error)
	RecordShownFunc func(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error)
}

func (f *FakePromoService) Evaluate(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error) {
	return f.EvaluateFunc(ctx, userUUID, tzOffsetMinutes)
}

func (f *FakePromoService) RecordShown(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error) {
	return f.RecordShownFunc(ctx, userUUID, tzOffsetMinutes)
}

func TestPromoHandlers(t *testing.T) {
	userUUID := uuid.New()
	next := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

	var gotOffset int
	record := func(d *promodomain.Decision, err error) func(context.Context, uuid.UUID, int) (*promodomain.Decision, error) {
		return func(_ context.Context, _ uuid.UUID, offset int) (*promodomain.Decision, error) {
			gotOffset = offset
			return d, err
		}
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		anonymous  bool
		svc        *FakePromoService
		wantStatus int
		wantBody   string
		wantOffset int
	}{
		{
			name:       "eligibility requires principal",
			method:     http.MethodGet,
			target:     "/api/promo/eligibility",
			anonymous:  true,
			svc:        &FakePromoService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "eligibility with offset",
			method: http.MethodGet,
			target: "/api/promo/eligibility?tz_offset=-300",
			svc: &FakePromoService{EvaluateFunc: record(&promodomain.Decision{
				Eligible: true, Reason: promodomain.ReasonEligible, DailyTarget: 4,
			}, nil)},
			wantStatus: http.StatusOK,
			wantBody:   `"eligible":true`,
			wantOffset: -300,
		},
		{
			name:       "eligibility bad offset",
			method:     http.MethodGet,
			target:     "/api/promo/eligibility?tz_offset=abc",
			svc:        &FakePromoService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "eligibility offset out of range",
			method: http.MethodGet,
			target: "/api/promo/eligibility?tz_offset=5000",
			svc: &FakePromoService{EvaluateFunc: record(nil,
				fmt.Errorf("%w: 5000", promodomain.ErrInvalidOffset))},
			wantStatus: http.StatusBadRequest,
			wantOffset: 5000,
		},
		{
			name:   "shown records impression",
			method: http.MethodPost,
			target: "/api/promo/shown",
			body:   `{"tz_offset":60}`,
			svc: &FakePromoService{RecordShownFunc: record(&promodomain.Decision{
				Reason: promodomain.ReasonCooldown, NextCheck: next, ShownToday: 1,
			}, nil)},
			wantStatus: http.StatusCreated,
			wantBody:   `"reason":"cooldown"`,
			wantOffset: 60,
		},
		{
			name:   "shown while not eligible",
			method: http.MethodPost,
			target: "/api/promo/shown",
			svc: &FakePromoService{RecordShownFunc: record(nil,
				fmt.Errorf("%w: %s", promodomain.ErrNotEligible, promodomain.ReasonDailyCap))},
			wantStatus: http.StatusConflict,
			wantBody:   "daily_cap",
		},
		{
			name:   "shown storage failure",
			method: http.MethodPost,
			target: "/api/promo/shown",
			svc: &FakePromoService{RecordShownFunc: record(nil,
				fmt.Errorf("connection reset"))},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOffset = 0
			h := NewPromoHandlers(tt.svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))

			r := chi.NewRouter()
			if !tt.anonymous {
				r.Use(func(next http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
						ctx := httpx.WithPrincipal(req.Context(), httpx.Principal{UserUUID: userUUID})
						next.ServeHTTP(w, req.WithContext(ctx))
					})
				})
			}
			r.Get("/api/promo/eligibility", h.HandleEligibility)
			r.Post("/api/promo/shown", h.HandleShown)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.Equal(t, tt.wantOffset, gotOffset)
		})
	}
}
