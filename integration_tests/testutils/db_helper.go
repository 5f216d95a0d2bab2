package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

var appTables = []string{
	"promo_impressions",
	"leaderboard_snapshots",
	"game_results",
	"games",
	"questions",
	"wallet_ledger",
	"wallets",
	"passkey_credentials",
	"passkey_sessions",
	"users",
	"river_job",
}

// TruncateTables truncates the specified tables and resets their sequences.
func TruncateTables(ctx context.Context, db *bun.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}

	quoted := make([]string, len(tables))
	for i, table := range tables {
		quoted[i] = fmt.Sprintf("%q", table)
	}

	query := "TRUNCATE TABLE " + strings.Join(quoted, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables %v: %w", tables, err)
	}
	return nil
}
