package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	leaderboardservice "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/cache"
	leaderboardhandlers "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/repositories"
	leaderboardrouter "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/router"
	leaderboardscheduler "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/scheduler"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the leaderboard module.
type Module struct {
	LeaderboardService leaderboardservice.Service
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	cache              leaderboardcache.Cache
	scheduler          *leaderboardscheduler.Scheduler
	cancelFunc         context.CancelFunc
	logger             *slog.Logger
}

// NewLeaderboardModule creates the leaderboard module. Boards are cached in
// Redis when a URL is configured and in process memory otherwise.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "leaderboard"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule initializing")

	var cache leaderboardcache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := leaderboardcache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create leaderboard cache: %w", err)
		}
		cache = redisCache
		logger.InfoContext(ctx, "Leaderboard cache backed by Redis")
	} else {
		cache = leaderboardcache.NewMemory(clock.RealClock{})
	}

	service := leaderboardservice.NewLeaderboardService(
		leaderboarddb.NewRepository(db),
		cache,
		logger,
		obs.Metrics,
		tracer,
		eventBus,
		clock.RealClock{},
		leaderboardservice.Config{
			TopN:     cfg.Leaderboard.TopN,
			CacheTTL: cfg.Leaderboard.CacheTTL,
		},
	)

	scheduler, err := leaderboardscheduler.New(cfg.Leaderboard.SnapshotSchedule, service, clock.RealClock{}, logger)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	handlers := leaderboardhandlers.NewLeaderboardHandlers(service, logger, tracer)

	subscriber, err := eventBus.Subscriber("leaderboard")
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to create leaderboard subscriber: %w", err)
	}

	// A process-local cache is stale on every instance but the one that
	// handled the game, so each instance evicts on the broadcast announcement.
	var broadcast message.Subscriber
	if cfg.Redis.URL == "" {
		broadcast, err = eventBus.BroadcastSubscriber()
		if err != nil {
			_ = cache.Close()
			return nil, fmt.Errorf("failed to create leaderboard broadcast subscriber: %w", err)
		}
	}

	leaderboardRouter := leaderboardrouter.NewLeaderboardRouter(logger, router, subscriber, broadcast, eventBus, obs.Metrics, tracer)
	if err := leaderboardRouter.Configure(ctx, handlers); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	if httpRouter != nil {
		httpRouter.Route("/api/leaderboards", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/{period}", handlers.HandleGetLeaderboard)
			r.Get("/{period}/history/{key}", handlers.HandleGetSnapshot)
		})
	}

	return &Module{
		LeaderboardService: service,
		LeaderboardRouter:  leaderboardRouter,
		cache:              cache,
		scheduler:          scheduler,
		logger:             logger,
	}, nil
}

// Run starts the snapshot schedule and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	m.scheduler.Start(ctx)
	<-ctx.Done()
	m.logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the schedule and releases the cache.
func (m *Module) Close() error {
	m.logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.scheduler.Stop()

	if err := m.cache.Close(); err != nil {
		return fmt.Errorf("error closing leaderboard cache: %w", err)
	}

	m.logger.Info("Leaderboard module stopped")
	return nil
}
