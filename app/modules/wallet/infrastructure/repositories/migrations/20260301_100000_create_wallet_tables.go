package walletmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating wallets and wallet_ledger tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS wallets (
					user_uuid UUID PRIMARY KEY,
					coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
					lives INTEGER NOT NULL DEFAULT 0 CHECK (lives >= 0),
					last_regen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					booster_type VARCHAR(32),
					booster_activated_at TIMESTAMPTZ,
					booster_expires_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_wallets_booster_expires_at ON wallets(booster_expires_at)
					WHERE booster_expires_at IS NOT NULL;
			`); err != nil {
				return fmt.Errorf("failed to create wallets table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS wallet_ledger (
					id BIGSERIAL PRIMARY KEY,
					user_uuid UUID NOT NULL REFERENCES wallets(user_uuid) ON DELETE CASCADE,
					idempotency_key VARCHAR(128) NOT NULL UNIQUE,
					coins_delta BIGINT NOT NULL,
					lives_delta INTEGER NOT NULL,
					reason VARCHAR(64) NOT NULL,
					coins_after BIGINT NOT NULL,
					lives_after INTEGER NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_wallet_ledger_user_created ON wallet_ledger(user_uuid, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_wallet_ledger_reason_created ON wallet_ledger(reason, created_at);
			`); err != nil {
				return fmt.Errorf("failed to create wallet_ledger table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping wallet tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS wallet_ledger;`); err != nil {
				return fmt.Errorf("failed to drop wallet_ledger table: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS wallets;`); err != nil {
				return fmt.Errorf("failed to drop wallets table: %w", err)
			}
			return nil
		})
	})
}
