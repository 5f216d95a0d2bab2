package leaderboarddb

import (
	"context"

	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for leaderboard queries and snapshots.
type Repository interface {
	// TopStandings returns the best limit players of the window, ranked.
	TopStandings(ctx context.Context, db bun.IDB, window leaderboarddomain.Window, limit int) ([]Standing, error)

	// UserStanding returns the ranked row of one user. It returns ErrNotFound
	// if the user has no finished game in the window.
	UserStanding(ctx context.Context, db bun.IDB, window leaderboarddomain.Window, userUUID uuid.UUID) (*Standing, error)

	// InsertSnapshot stores a frozen board. Rows already stored for the same
	// board and user are kept. It returns how many rows were inserted.
	InsertSnapshot(ctx context.Context, db bun.IDB, rows []Snapshot) (int, error)

	// GetSnapshot returns a frozen board ordered by rank.
	GetSnapshot(ctx context.Context, db bun.IDB, period, periodKey string) ([]Snapshot, error)
}
