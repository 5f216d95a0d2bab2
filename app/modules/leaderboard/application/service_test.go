package leaderboardservice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	leaderboardcache "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/cache"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// Friday 2026-05-01, ISO week 2026-W18.
var t0 = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

type fixture struct {
	repo  *FakeLeaderboardRepo
	cache *leaderboardcache.Memory
	pub   *FakePublisher
	clock *clock.FakeClock
	svc   *LeaderboardService
}

func newFixture(topN int) *fixture {
	f := &fixture{
		repo:  NewFakeLeaderboardRepo(),
		pub:   &FakePublisher{},
		clock: clock.NewFakeClock(t0),
	}
	f.cache = leaderboardcache.NewMemory(f.clock)
	f.svc = NewLeaderboardService(
		f.repo,
		f.cache,
		slog.Default(),
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
		f.pub,
		f.clock,
		Config{TopN: topN, CacheTTL: time.Minute},
	)
	return f
}

func TestGetLeaderboard(t *testing.T) {
	amy, bob, cat := uuid.New(), uuid.New(), uuid.New()

	f := newFixture(2)
	f.repo.add(amy, "amy", 10, 20000, t0.Add(-time.Hour))
	f.repo.add(bob, "bob", 12, 30000, t0.Add(-2*time.Hour))
	f.repo.add(cat, "cat", 3, 5000, t0.Add(-3*time.Hour))
	f.repo.add(cat, "cat", 15, 25000, t0.Add(-48*time.Hour))

	tests := []struct {
		name      string
		period    leaderboarddomain.Period
		key       string
		user      uuid.UUID
		wantKey   string
		wantOrder []string
		wantMe    int
	}{
		{name: "daily", period: leaderboarddomain.PeriodDaily, user: amy, wantKey: "2026-05-01", wantOrder: []string{"bob", "amy"}, wantMe: 2},
		{name: "caller outside top", period: leaderboarddomain.PeriodDaily, user: cat, wantKey: "2026-05-01", wantOrder: []string{"bob", "amy"}, wantMe: 3},
		{name: "weekly includes earlier days", period: leaderboarddomain.PeriodWeekly, user: cat, wantKey: "2026-W18", wantOrder: []string{"cat", "bob"}, wantMe: 1},
		{name: "all time", period: leaderboarddomain.PeriodAllTime, wantKey: "all", wantOrder: []string{"cat", "bob"}},
		{name: "explicit key", period: leaderboarddomain.PeriodDaily, key: "2026-04-29", user: cat, wantKey: "2026-04-29", wantOrder: []string{"cat"}, wantMe: 1},
		{name: "caller without games", period: leaderboarddomain.PeriodDaily, key: "2026-04-29", user: amy, wantKey: "2026-04-29", wantOrder: []string{"cat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := f.svc.GetLeaderboard(context.Background(), tt.period, tt.key, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, view.Key)

			var names []string
			for _, e := range view.Entries {
				names = append(names, e.Username)
			}
			assert.Equal(t, tt.wantOrder, names)

			if tt.wantMe == 0 {
				assert.Nil(t, view.Me)
			} else {
				require.NotNil(t, view.Me)
				assert.Equal(t, tt.wantMe, view.Me.Rank)
			}
		})
	}
}

func TestGetLeaderboardInvalidKey(t *testing.T) {
	f := newFixture(10)
	_, err := f.svc.GetLeaderboard(context.Background(), leaderboarddomain.PeriodWeekly, "soon", uuid.Nil)
	assert.ErrorIs(t, err, leaderboarddomain.ErrInvalidKey)
}

func TestCacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	amy := uuid.New()
	f := newFixture(10)
	f.repo.add(amy, "amy", 5, 1000, t0.Add(-time.Minute))

	_, err := f.svc.GetLeaderboard(ctx, leaderboarddomain.PeriodDaily, "", uuid.Nil)
	require.NoError(t, err)

	f.repo.add(amy, "amy", 5, 1000, t0)
	view, err := f.svc.GetLeaderboard(ctx, leaderboarddomain.PeriodDaily, "", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Entries[0].CorrectAnswers, "served from cache")

	require.NoError(t, f.svc.Invalidate(ctx, t0))
	view, err = f.svc.GetLeaderboard(ctx, leaderboarddomain.PeriodDaily, "", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.Entries[0].CorrectAnswers)

	require.Equal(t, []string{events.LeaderboardInvalidatedV1}, f.pub.Topics())
	var payload events.LeaderboardInvalidatedPayloadV1
	require.NoError(t, f.pub.Decode(0, &payload))
	assert.Equal(t, []events.LeaderboardKeyV1{
		{Period: "daily", PeriodKey: "2026-05-01"},
		{Period: "weekly", PeriodKey: "2026-W18"},
		{Period: "all_time", PeriodKey: "all"},
	}, payload.Keys)

	f.clock.Advance(time.Minute)
	count := 0
	for _, step := range f.repo.Trace() {
		if step == "TopStandings" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestEvictDropsLocalBoardsWithoutAnnouncing(t *testing.T) {
	ctx := context.Background()
	amy := uuid.New()
	f := newFixture(10)
	f.repo.add(amy, "amy", 5, 1000, t0.Add(-time.Minute))

	_, err := f.svc.GetLeaderboard(ctx, leaderboarddomain.PeriodDaily, "", uuid.Nil)
	require.NoError(t, err)
	f.repo.add(amy, "amy", 5, 1000, t0)

	require.NoError(t, f.svc.Evict(ctx, leaderboarddomain.CacheKey(leaderboarddomain.PeriodDaily, "2026-05-01")))
	view, err := f.svc.GetLeaderboard(ctx, leaderboarddomain.PeriodDaily, "", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.Entries[0].CorrectAnswers)
	assert.Empty(t, f.pub.Topics())

	require.NoError(t, f.svc.Evict(ctx))
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	amy, bob := uuid.New(), uuid.New()
	f := newFixture(10)

	sunday := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	f.repo.add(amy, "amy", 4, 1000, sunday.Add(10*time.Hour))
	f.repo.add(bob, "bob", 9, 1000, sunday.Add(11*time.Hour))
	f.repo.add(bob, "bob", 9, 1000, t0)

	n, err := f.svc.Snapshot(ctx, sunday)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "daily and weekly boards on a Sunday")

	n, err = f.svc.Snapshot(ctx, sunday)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "re-running is a no-op")

	board, err := f.svc.GetSnapshot(ctx, leaderboarddomain.PeriodWeekly, "2026-W18")
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "bob", board.Entries[0].Username)
	assert.Equal(t, int64(18), board.Entries[0].CorrectAnswers)

	n, err = f.svc.Snapshot(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "Friday stores the daily board only")

	_, err = f.svc.GetSnapshot(ctx, leaderboarddomain.PeriodDaily, "bad")
	assert.ErrorIs(t, err, leaderboarddomain.ErrInvalidKey)
}
