package gamemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating questions, games and game_results tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS questions (
					id BIGSERIAL PRIMARY KEY,
					category VARCHAR(64) NOT NULL,
					prompt TEXT NOT NULL,
					option_a TEXT NOT NULL,
					option_b TEXT NOT NULL,
					option_c TEXT NOT NULL,
					option_d TEXT NOT NULL,
					correct_index SMALLINT NOT NULL CHECK (correct_index BETWEEN 0 AND 3),
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_questions_active_category ON questions(category) WHERE active;
			`); err != nil {
				return fmt.Errorf("failed to create questions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS games (
					id UUID PRIMARY KEY,
					user_uuid UUID NOT NULL REFERENCES users(uuid) ON DELETE CASCADE,
					category VARCHAR(64) NOT NULL DEFAULT '',
					question_ids BIGINT[] NOT NULL,
					current_index INTEGER NOT NULL DEFAULT 0,
					correct_answers INTEGER NOT NULL DEFAULT 0,
					coins_earned BIGINT NOT NULL DEFAULT 0,
					response_time_ms BIGINT NOT NULL DEFAULT 0,
					status VARCHAR(16) NOT NULL CHECK (status IN ('in_progress', 'won', 'lost', 'abandoned')),
					started_at TIMESTAMPTZ NOT NULL,
					question_started_at TIMESTAMPTZ NOT NULL,
					finished_at TIMESTAMPTZ
				);
				CREATE INDEX IF NOT EXISTS idx_games_user_started ON games(user_uuid, started_at DESC);
				CREATE INDEX IF NOT EXISTS idx_games_started_at ON games(started_at);
			`); err != nil {
				return fmt.Errorf("failed to create games table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS game_results (
					game_id UUID PRIMARY KEY REFERENCES games(id) ON DELETE CASCADE,
					user_uuid UUID NOT NULL,
					status VARCHAR(16) NOT NULL,
					category VARCHAR(64) NOT NULL DEFAULT '',
					correct_answers INTEGER NOT NULL,
					response_time_ms BIGINT NOT NULL,
					coins_earned BIGINT NOT NULL,
					completed_at TIMESTAMPTZ NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_game_results_completed_at ON game_results(completed_at);
				CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results(user_uuid);
			`); err != nil {
				return fmt.Errorf("failed to create game_results table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping game tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{"game_results", "games", "questions"} {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+";"); err != nil {
					return fmt.Errorf("failed to drop %s table: %w", table, err)
				}
			}
			return nil
		})
	})
}
