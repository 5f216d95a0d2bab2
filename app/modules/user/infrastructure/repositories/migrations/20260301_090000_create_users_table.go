package usermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating users table...")

		_, err := db.ExecContext(ctx, `
			CREATE EXTENSION IF NOT EXISTS pgcrypto;
			CREATE TABLE IF NOT EXISTS users (
				uuid UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				username VARCHAR(20) NOT NULL,
				pin_hash TEXT,
				device_id VARCHAR(128),
				display_name VARCHAR(32),
				role VARCHAR(16) NOT NULL DEFAULT 'player' CHECK (role IN ('player', 'admin')),
				failed_attempts INTEGER NOT NULL DEFAULT 0,
				locked_until TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_key ON users (lower(username));
			CREATE UNIQUE INDEX IF NOT EXISTS users_device_id_key ON users (device_id) WHERE device_id IS NOT NULL;
			CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at);
		`)
		if err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping users table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS users;`); err != nil {
			return fmt.Errorf("failed to drop users table: %w", err)
		}
		return nil
	})
}
