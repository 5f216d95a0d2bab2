package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a user has no standing on a board.
var ErrNotFound = errors.New("standing not found")

const rankExpr = "ROW_NUMBER() OVER (ORDER BY SUM(gr.correct_answers) DESC, SUM(gr.response_time_ms) ASC, u.username ASC) AS rank"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new leaderboard repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// standings aggregates game_results per user within window.
func standings(db bun.IDB, window leaderboarddomain.Window) *bun.SelectQuery {
	q := db.NewSelect().
		TableExpr("game_results AS gr").
		Join("JOIN users AS u ON u.uuid = gr.user_uuid").
		ColumnExpr(rankExpr).
		ColumnExpr("gr.user_uuid").
		ColumnExpr("u.username").
		ColumnExpr("u.display_name").
		ColumnExpr("SUM(gr.correct_answers) AS correct_answers").
		ColumnExpr("SUM(gr.response_time_ms) AS response_time_ms").
		ColumnExpr("COUNT(*) AS games_played").
		GroupExpr("gr.user_uuid, u.username, u.display_name")
	if window.Bounded() {
		q = q.Where("gr.completed_at >= ?", *window.Start).
			Where("gr.completed_at < ?", *window.End)
	}
	return q
}

func (r *Impl) TopStandings(ctx context.Context, db bun.IDB, window leaderboarddomain.Window, limit int) ([]Standing, error) {
	db = r.resolveDB(db)
	var rows []Standing
	err := standings(db, window).
		OrderExpr("rank ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	return rows, nil
}

func (r *Impl) UserStanding(ctx context.Context, db bun.IDB, window leaderboarddomain.Window, userUUID uuid.UUID) (*Standing, error) {
	db = r.resolveDB(db)
	row := new(Standing)
	err := db.NewSelect().
		With("standings", standings(db, window)).
		TableExpr("standings").
		ColumnExpr("*").
		Where("user_uuid = ?", userUUID).
		Scan(ctx, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user standing: %w", err)
	}
	return row, nil
}

func (r *Impl) InsertSnapshot(ctx context.Context, db bun.IDB, rows []Snapshot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (period, period_key, user_uuid) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted rows: %w", err)
	}
	return int(n), nil
}

func (r *Impl) GetSnapshot(ctx context.Context, db bun.IDB, period, periodKey string) ([]Snapshot, error) {
	db = r.resolveDB(db)
	var rows []Snapshot
	err := db.NewSelect().
		Model(&rows).
		Where("ls.period = ?", period).
		Where("ls.period_key = ?", periodKey).
		OrderExpr("ls.rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return rows, nil
}
