package admindb

import (
	"context"
	"fmt"
	"time"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	"github.com/uptrace/bun"
)

const (
	rewardReason  = "game_reward"
	boosterPrefix = "booster_%"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new admin repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) CountUsers(ctx context.Context, rng admindomain.Range) (int, int, error) {
	var row struct {
		Total   int `bun:"total"`
		Created int `bun:"created"`
	}
	err := r.db.NewSelect().
		TableExpr("users AS u").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COUNT(*) FILTER (WHERE u.created_at >= ?) AS created", rng.From).
		Where("u.created_at < ?", rng.To).
		Scan(ctx, &row)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return row.Total, row.Created, nil
}

func (r *Impl) GameTotals(ctx context.Context, rng admindomain.Range) (int, int, error) {
	var row struct {
		Played int `bun:"played"`
		Won    int `bun:"won"`
	}
	err := r.db.NewSelect().
		TableExpr("game_results AS gr").
		ColumnExpr("COUNT(*) AS played").
		ColumnExpr("COUNT(*) FILTER (WHERE gr.status = 'won') AS won").
		Where("gr.completed_at >= ? AND gr.completed_at < ?", rng.From, rng.To).
		Scan(ctx, &row)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count games: %w", err)
	}
	return row.Played, row.Won, nil
}

func (r *Impl) CoinTotals(ctx context.Context, rng admindomain.Range) (int64, int64, error) {
	var row struct {
		Earned int64 `bun:"earned"`
		Spent  int64 `bun:"spent"`
	}
	err := r.db.NewSelect().
		TableExpr("wallet_ledger AS wl").
		ColumnExpr("COALESCE(SUM(wl.coins_delta) FILTER (WHERE wl.reason = ?), 0) AS earned", rewardReason).
		ColumnExpr("COALESCE(-SUM(wl.coins_delta) FILTER (WHERE wl.coins_delta < 0), 0) AS spent").
		Where("wl.created_at >= ? AND wl.created_at < ?", rng.From, rng.To).
		Scan(ctx, &row)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum coins: %w", err)
	}
	return row.Earned, row.Spent, nil
}

func (r *Impl) CountBoosters(ctx context.Context, rng admindomain.Range) (int, error) {
	n, err := r.db.NewSelect().
		TableExpr("wallet_ledger AS wl").
		Where("wl.reason LIKE ?", boosterPrefix).
		Where("wl.created_at >= ? AND wl.created_at < ?", rng.From, rng.To).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count boosters: %w", err)
	}
	return n, nil
}

func (r *Impl) DailyGames(ctx context.Context, rng admindomain.Range) ([]admindomain.DayCount, error) {
	var rows []struct {
		Day    time.Time `bun:"day"`
		Played int       `bun:"played"`
		Won    int       `bun:"won"`
	}
	err := r.db.NewSelect().
		TableExpr("game_results AS gr").
		ColumnExpr("date_trunc('day', gr.completed_at AT TIME ZONE 'UTC') AS day").
		ColumnExpr("COUNT(*) AS played").
		ColumnExpr("COUNT(*) FILTER (WHERE gr.status = 'won') AS won").
		Where("gr.completed_at >= ? AND gr.completed_at < ?", rng.From, rng.To).
		GroupExpr("day").
		OrderExpr("day ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily games: %w", err)
	}

	out := make([]admindomain.DayCount, len(rows))
	for i, row := range rows {
		d := row.Day
		out[i] = admindomain.DayCount{
			Day:    time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Played: row.Played,
			Won:    row.Won,
		}
	}
	return out, nil
}
