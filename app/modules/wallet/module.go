package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	wallethandlers "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/handlers"
	walletqueue "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/queue"
	walletdb "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories"
	walletrouter "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/router"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
)

// Module represents the wallet module.
type Module struct {
	WalletService walletservice.Service
	WalletRouter  *walletrouter.WalletRouter
	queue         *walletqueue.Service
	cancelFunc    context.CancelFunc
	logger        *slog.Logger
}

// NewWalletModule creates and initializes a new wallet module. A nil pool
// disables scheduled booster expiry; expired boosters are still cleared on
// the next wallet read.
func NewWalletModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	authMiddleware func(http.Handler) http.Handler,
	db *bun.DB,
	pool *pgxpool.Pool,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "wallet"))
	tracer := obs.Tracer

	logger.InfoContext(ctx, "wallet.NewWalletModule initializing")

	repo := walletdb.NewRepository(db)

	var service *walletservice.WalletService
	var queue *walletqueue.Service
	if pool != nil {
		var err error
		queue, err = walletqueue.NewService(pool, logger, obs.Metrics, walletqueue.ExpirerFuncs{
			Expire: func(ctx context.Context, userUUID uuid.UUID) error {
				_, err := service.ExpireBooster(ctx, userUUID)
				return err
			},
			Sweep: func(ctx context.Context) (int, error) {
				return service.SweepExpiredBoosters(ctx)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet queue: %w", err)
		}
	}

	var scheduler walletservice.ExpiryScheduler
	if queue != nil {
		scheduler = queue
	}

	service = walletservice.NewWalletService(
		repo,
		logger,
		obs.Metrics,
		tracer,
		db,
		eventBus,
		scheduler,
		clock.RealClock{},
		walletservice.Config{
			BaseCap:       cfg.Wallet.BaseCap,
			RegenInterval: cfg.Wallet.RegenInterval,
			StartingLives: cfg.Wallet.StartingLives,
			StartingCoins: cfg.Wallet.StartingCoins,
		},
	)

	handlers := wallethandlers.NewWalletHandlers(service, logger, tracer)

	subscriber, err := eventBus.Subscriber("wallet")
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet subscriber: %w", err)
	}

	walletRouter := walletrouter.NewWalletRouter(logger, router, subscriber, eventBus, obs.Metrics, tracer)
	if err := walletRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure wallet router: %w", err)
	}

	if httpRouter != nil {
		httpRouter.Route("/api/wallet", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", handlers.HandleGetWallet)
			r.Get("/boosters", handlers.HandleListBoosters)
			r.Post("/boosters", handlers.HandleActivateBooster)
		})
	}

	return &Module{
		WalletService: service,
		WalletRouter:  walletRouter,
		queue:         queue,
		logger:        logger,
	}, nil
}

// Run starts the wallet queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting wallet module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start wallet queue", slog.String("error", err.Error()))
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Wallet module goroutine stopped")
}

// Close shuts down the wallet module.
func (m *Module) Close() error {
	m.logger.Info("Stopping wallet module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.queue != nil {
		if err := m.queue.Stop(context.Background()); err != nil {
			return fmt.Errorf("error stopping wallet queue: %w", err)
		}
	}

	m.logger.Info("Wallet module stopped")
	return nil
}
