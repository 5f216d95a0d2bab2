package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	authhandlers "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// newMessageRouter builds the watermill router shared by every module's
// event handlers.
func newMessageRouter(logger *slog.Logger, obs *observability.Observability) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	if obs.Registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(obs.Registry, "dingleup", "events")
		builder.AddPrometheusRouterMetrics(router)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)
	return router, nil
}

// newHTTPRouter builds the API router with the cross-cutting middleware and
// the operational endpoints. Modules mount their own routes on it.
func newHTTPRouter(cfg *config.Config, obs *observability.Observability) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", obs.MetricsHandler())
	return r
}
