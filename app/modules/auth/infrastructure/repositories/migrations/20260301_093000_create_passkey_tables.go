package authmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating passkey tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS passkey_sessions (
					id TEXT PRIMARY KEY,
					kind VARCHAR(16) NOT NULL CHECK (kind IN ('registration', 'login')),
					user_uuid UUID REFERENCES users(uuid) ON DELETE CASCADE,
					session_json TEXT NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_passkey_sessions_expires_at ON passkey_sessions (expires_at);
			`); err != nil {
				return fmt.Errorf("failed to create passkey_sessions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS passkey_credentials (
					credential_id TEXT PRIMARY KEY,
					user_uuid UUID NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
					credential_json TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					last_used_at TIMESTAMPTZ
				);
				CREATE INDEX IF NOT EXISTS idx_passkey_credentials_user ON passkey_credentials (user_uuid);
			`); err != nil {
				return fmt.Errorf("failed to create passkey_credentials table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping passkey tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS passkey_credentials;
			DROP TABLE IF EXISTS passkey_sessions;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop passkey tables: %w", err)
		}
		return nil
	})
}
