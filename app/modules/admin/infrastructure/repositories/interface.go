package admindb

import (
	"context"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
)

// Repository reads the aggregates behind the admin dashboard.
type Repository interface {
	// CountUsers returns the accounts created before r.To and those created
	// within r.
	CountUsers(ctx context.Context, r admindomain.Range) (total, created int, err error)

	GameTotals(ctx context.Context, r admindomain.Range) (played, won int, err error)

	// CoinTotals sums game rewards and coin spending from the wallet ledger.
	CoinTotals(ctx context.Context, r admindomain.Range) (earned, spent int64, err error)

	CountBoosters(ctx context.Context, r admindomain.Range) (int, error)

	// DailyGames groups finished games by UTC day. Days without games are
	// absent.
	DailyGames(ctx context.Context, r admindomain.Range) ([]admindomain.DayCount, error)
}
