// Package leaderboardscheduler freezes the previous day's boards on a cron
// schedule.
package leaderboardscheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs five minutes past midnight UTC. The first field is
// seconds.
const DefaultSchedule = "0 5 0 * * *"

const runTimeout = 2 * time.Minute

// Snapshotter stores the boards of one day.
type Snapshotter interface {
	Snapshot(ctx context.Context, day time.Time) (int, error)
}

// Scheduler runs daily snapshots.
type Scheduler struct {
	cron        *cron.Cron
	snapshotter Snapshotter
	clock       clock.Clock
	logger      *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates schedule and registers the snapshot job.
func New(schedule string, snapshotter Snapshotter, clk clock.Clock, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	s := &Scheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		snapshotter: snapshotter,
		clock:       clk,
		logger:      logger,
		ctx:         context.Background(),
	}
	if _, err := s.cron.AddFunc(schedule, s.runJob); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running jobs in the background. Jobs are cancelled with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()
	_ = s.Run(ctx)
}

// Run snapshots the UTC day before now.
func (s *Scheduler) Run(ctx context.Context) error {
	day := s.clock.Now().UTC().AddDate(0, 0, -1)
	n, err := s.snapshotter.Snapshot(ctx, day)
	if err != nil {
		s.logger.ErrorContext(ctx, "Leaderboard snapshot failed",
			attr.String("day", day.Format(time.DateOnly)),
			attr.Error(err),
		)
		return err
	}
	s.logger.InfoContext(ctx, "Leaderboard snapshot completed",
		attr.String("day", day.Format(time.DateOnly)),
		attr.Int("rows", n),
	)
	return nil
}
