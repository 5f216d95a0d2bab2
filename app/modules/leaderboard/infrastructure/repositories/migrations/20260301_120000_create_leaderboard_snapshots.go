package leaderboardmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leaderboard_snapshots table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
				id BIGSERIAL PRIMARY KEY,
				period VARCHAR(16) NOT NULL,
				period_key VARCHAR(16) NOT NULL,
				rank INTEGER NOT NULL,
				user_uuid UUID NOT NULL,
				username VARCHAR(32) NOT NULL,
				correct_answers BIGINT NOT NULL,
				response_time_ms BIGINT NOT NULL,
				games_played BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (period, period_key, user_uuid)
			);
			CREATE INDEX IF NOT EXISTS idx_leaderboard_snapshots_board ON leaderboard_snapshots(period, period_key, rank);
		`)
		if err != nil {
			return fmt.Errorf("failed to create leaderboard_snapshots table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping leaderboard_snapshots table...")
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS leaderboard_snapshots;`)
		return err
	})
}
