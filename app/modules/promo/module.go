package promo

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	promoservice "github.com/Black-And-White-Club/dingleup/app/modules/promo/application"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	promohandlers "github.com/Black-And-White-Club/dingleup/app/modules/promo/infrastructure/handlers"
	promodb "github.com/Black-And-White-Club/dingleup/app/modules/promo/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

const pruneInterval = time.Hour

// Presence lists the users connected right now.
type Presence func() []promoservice.OnlineUser

// Module represents the promo module.
type Module struct {
	service       promoservice.Service
	presence      Presence
	checkInterval time.Duration
	cancelFunc    context.CancelFunc
	logger        *slog.Logger
}

// PolicyFromConfig maps the promo settings onto the decision policy.
func PolicyFromConfig(cfg config.PromoConfig) promodomain.Policy {
	p := promodomain.DefaultPolicy()
	p.MaxPer24h = cfg.MaxPerDay
	p.MaxPerDay = cfg.MaxPerDay
	p.MinPerDay = cfg.MinPerDay
	p.Cooldown = cfg.Cooldown
	return p
}

// NewPromoModule creates the promo module and mounts /api/promo. presence may
// be nil, in which case no eligibility events are pushed.
func NewPromoModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	presence Presence,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "promo"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "promo.NewPromoModule initializing")

	service := promoservice.NewService(
		promodb.NewRepository(db),
		db,
		eventBus,
		PolicyFromConfig(cfg.Promo),
		clock.RealClock{},
		logger,
		obs.Metrics,
		tracer,
	)

	handlers := promohandlers.NewPromoHandlers(service, logger, tracer)

	if httpRouter != nil {
		httpRouter.Route("/api/promo", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/eligibility", handlers.HandleEligibility)
			r.Post("/shown", handlers.HandleShown)
		})
	}

	interval := cfg.Promo.CheckInterval
	if interval <= 0 {
		interval = promodomain.DefaultCheckEvery
	}

	return &Module{
		service:       service,
		presence:      presence,
		checkInterval: interval,
		logger:        logger,
	}, nil
}

// Run re-evaluates connected users on every check interval and prunes old
// impressions hourly until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting promo module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	check := time.NewTicker(m.checkInterval)
	defer check.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "Promo module goroutine stopped")
			return
		case <-check.C:
			if m.presence == nil {
				continue
			}
			n, err := m.service.CheckOnline(ctx, m.presence())
			if err != nil {
				m.logger.ErrorContext(ctx, "Promo check failed", attr.Error(err))
			}
			if n > 0 {
				m.logger.DebugContext(ctx, "Promo eligibility announced", attr.Int("users", n))
			}
		case <-prune.C:
			n, err := m.service.Prune(ctx)
			if err != nil {
				m.logger.ErrorContext(ctx, "Failed to prune promo impressions", attr.Error(err))
				continue
			}
			m.logger.InfoContext(ctx, "Pruned promo impressions", attr.Int("deleted", n))
		}
	}
}

// Close stops the promo module.
func (m *Module) Close() error {
	m.logger.Info("Stopping promo module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
