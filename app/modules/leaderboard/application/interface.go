package leaderboardservice

import (
	"context"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	"github.com/google/uuid"
)

// Service is the leaderboard application API.
type Service interface {
	// GetLeaderboard returns the top list of period. An empty key selects the
	// current board. userUUID, when set, adds the caller's own standing.
	GetLeaderboard(ctx context.Context, period leaderboarddomain.Period, key string, userUUID uuid.UUID) (*BoardView, error)

	// Invalidate drops the cached boards that contain at and announces it.
	Invalidate(ctx context.Context, at time.Time) error

	// Evict drops cached boards from this instance's cache only.
	Evict(ctx context.Context, cacheKeys ...string) error

	// Snapshot freezes the daily board of day, and the weekly board when day
	// closes an ISO week.
	Snapshot(ctx context.Context, day time.Time) (int, error)

	GetSnapshot(ctx context.Context, period leaderboarddomain.Period, key string) (*leaderboarddomain.Board, error)
}

// BoardView is a board plus the caller's standing.
type BoardView struct {
	leaderboarddomain.Board
	Me *leaderboarddomain.Entry `json:"me,omitempty"`
}
