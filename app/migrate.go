package app

import (
	"context"
	"fmt"
	"log/slog"

	authmigrations "github.com/Black-And-White-Club/dingleup/app/modules/auth/infrastructure/repositories/migrations"
	gamemigrations "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories/migrations"
	leaderboardmigrations "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/repositories/migrations"
	promomigrations "github.com/Black-And-White-Club/dingleup/app/modules/promo/infrastructure/repositories/migrations"
	usermigrations "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories/migrations"
	walletmigrations "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// ModuleMigrations is the migration set of one module.
type ModuleMigrations struct {
	Name       string
	Migrations *migrate.Migrations
}

// OrderedMigrations lists every module's migrations in foreign key order.
// Rollbacks walk it backwards.
var OrderedMigrations = []ModuleMigrations{
	{"user", usermigrations.Migrations},
	{"auth", authmigrations.Migrations},
	{"wallet", walletmigrations.Migrations},
	{"game", gamemigrations.Migrations},
	{"leaderboard", leaderboardmigrations.Migrations},
	{"promo", promomigrations.Migrations},
}

// NewMigrator tracks each module in its own bookkeeping table so rollbacks
// stay scoped to that module.
func NewMigrator(db *bun.DB, m ModuleMigrations) *migrate.Migrator {
	return migrate.NewMigrator(db, m.Migrations,
		migrate.WithTableName("bun_migrations_"+m.Name),
		migrate.WithLocksTableName("bun_migration_locks_"+m.Name),
	)
}

// Migrate applies the River queue schema and then every module migration.
func Migrate(ctx context.Context, db *bun.DB, pool *pgxpool.Pool, logger *slog.Logger) error {
	if err := MigrateRiver(ctx, pool); err != nil {
		return err
	}

	for _, m := range OrderedMigrations {
		migrator := NewMigrator(db, m)
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", m.Name, err)
		}
		group, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", m.Name, err)
		}
		if group.IsZero() {
			logger.DebugContext(ctx, "No new migrations", slog.String("module", m.Name))
		} else {
			logger.InfoContext(ctx, "Applied migrations",
				slog.String("module", m.Name),
				slog.Int64("group", group.ID),
			)
		}
	}
	return nil
}

// MigrateRiver brings the River job tables up to date.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}
