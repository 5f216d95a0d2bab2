package promomigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating promo_impressions table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS promo_impressions (
				id BIGSERIAL PRIMARY KEY,
				user_uuid UUID NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
				shown_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_promo_impressions_user_shown ON promo_impressions(user_uuid, shown_at);
		`)
		if err != nil {
			return fmt.Errorf("failed to create promo_impressions table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping promo_impressions table...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS promo_impressions;`)
		return err
	})
}
