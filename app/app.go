// Package app assembles the modules into the running service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Black-And-White-Club/dingleup/app/modules/admin"
	"github.com/Black-And-White-Club/dingleup/app/modules/auth"
	"github.com/Black-And-White-Club/dingleup/app/modules/game"
	"github.com/Black-And-White-Club/dingleup/app/modules/leaderboard"
	"github.com/Black-And-White-Club/dingleup/app/modules/promo"
	promoservice "github.com/Black-And-White-Club/dingleup/app/modules/promo/application"
	"github.com/Black-And-White-Club/dingleup/app/modules/realtime"
	realtimeservice "github.com/Black-And-White-Club/dingleup/app/modules/realtime/application"
	"github.com/Black-And-White-Club/dingleup/app/modules/user"
	"github.com/Black-And-White-Club/dingleup/app/modules/wallet"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/db/bundb"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/modules"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
)

// App owns the shared infrastructure and the module registry.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	Pool          *pgxpool.Pool
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPHandler   http.Handler
	Modules       *modules.Registry

	logger *slog.Logger
}

// Initialize connects to Postgres and the event bus and builds every module.
func Initialize(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger
	app := &App{Config: cfg, Observability: obs, Modules: modules.NewRegistry(), logger: logger}

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	app.DB = db

	pool, err := bundb.OpenPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		app.closeInfra()
		return nil, err
	}
	app.Pool = pool

	if cfg.Postgres.AutoMigrate {
		if err := Migrate(ctx, db, pool, logger); err != nil {
			app.closeInfra()
			return nil, err
		}
	}

	if cfg.NATS.URL == "" {
		logger.WarnContext(ctx, "NATS_URL not set, using in-process event bus")
		app.EventBus = eventbus.NewInMemory(logger)
	} else {
		bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
			URL:         cfg.NATS.URL,
			ServiceName: "dingleup",
			StreamName:  cfg.NATS.StreamName,
			Subjects:    eventbus.DefaultSubjects,
		}, logger)
		if err != nil {
			app.closeInfra()
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
	}

	router, err := newMessageRouter(logger, obs)
	if err != nil {
		app.closeInfra()
		return nil, err
	}
	app.Router = router

	httpRouter := newHTTPRouter(cfg, obs)
	if err := app.initModules(ctx, httpRouter); err != nil {
		_ = app.Modules.CloseAll()
		app.closeInfra()
		return nil, err
	}
	app.HTTPHandler = httpRouter

	logger.InfoContext(ctx, "Application initialized", slog.Any("modules", app.Modules.Names()))
	return app, nil
}

func (app *App) initModules(ctx context.Context, httpRouter chi.Router) error {
	cfg, obs, bus, db := app.Config, app.Observability, app.EventBus, app.DB
	authMiddleware := auth.NewAuthMiddleware(cfg)

	userModule, err := user.NewUserModule(ctx, obs, bus, httpRouter, authMiddleware, db)
	if err != nil {
		return fmt.Errorf("failed to initialize user module: %w", err)
	}
	app.Modules.Add("user", userModule)

	authModule, err := auth.NewAuthModule(ctx, cfg, obs, userModule.UserService, httpRouter, db)
	if err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	app.Modules.Add("auth", authModule)

	walletModule, err := wallet.NewWalletModule(ctx, cfg, obs, bus, app.Router, httpRouter, authMiddleware, db, app.Pool)
	if err != nil {
		return fmt.Errorf("failed to initialize wallet module: %w", err)
	}
	app.Modules.Add("wallet", walletModule)

	gameModule, err := game.NewGameModule(ctx, cfg, obs, bus, walletModule.WalletService, httpRouter, authMiddleware, db)
	if err != nil {
		return fmt.Errorf("failed to initialize game module: %w", err)
	}
	app.Modules.Add("game", gameModule)

	leaderboardModule, err := leaderboard.NewLeaderboardModule(ctx, cfg, obs, bus, app.Router, httpRouter, authMiddleware, db)
	if err != nil {
		return fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}
	app.Modules.Add("leaderboard", leaderboardModule)

	realtimeModule, err := realtime.NewRealtimeModule(ctx, cfg, obs, bus, app.Router, httpRouter, auth.NewTokenValidator(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize realtime module: %w", err)
	}
	app.Modules.Add("realtime", realtimeModule)

	promoModule, err := promo.NewPromoModule(ctx, cfg, obs, bus, presenceOf(realtimeModule.Hub), httpRouter, authMiddleware, db)
	if err != nil {
		return fmt.Errorf("failed to initialize promo module: %w", err)
	}
	app.Modules.Add("promo", promoModule)

	adminModule, err := admin.NewAdminModule(ctx, cfg, obs, gameModule.GameService, httpRouter, authMiddleware, db)
	if err != nil {
		return fmt.Errorf("failed to initialize admin module: %w", err)
	}
	app.Modules.Add("admin", adminModule)

	return nil
}

// presenceOf feeds the promo watcher from the websocket hub.
func presenceOf(hub *realtimeservice.Hub) promo.Presence {
	return func() []promoservice.OnlineUser {
		online := hub.OnlineUsers()
		users := make([]promoservice.OnlineUser, len(online))
		for i, p := range online {
			users[i] = promoservice.OnlineUser{UserUUID: p.UserUUID, TZOffsetMinutes: p.TZOffsetMinutes}
		}
		return users
	}
}

func (app *App) closeInfra() {
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.logger.Error("Error closing event bus", slog.String("error", err.Error()))
		}
	}
	if app.Pool != nil {
		app.Pool.Close()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.logger.Error("Error closing database", slog.String("error", err.Error()))
		}
	}
}
