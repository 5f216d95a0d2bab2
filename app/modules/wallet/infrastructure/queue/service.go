package walletqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	queueName     = "wallet"
	sweepInterval = 5 * time.Minute
)

// Service schedules wallet jobs using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	logger  *slog.Logger
	metrics observability.OperationMetrics
}

// NewService creates the River client with the wallet workers registered.
func NewService(pool *pgxpool.Pool, logger *slog.Logger, metrics observability.OperationMetrics, expirer Expirer) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
		attr.String("queue", queueName),
	)

	workers := river.NewWorkers()
	river.AddWorker(workers, NewBoosterExpiredWorker(ctxLogger, expirer))
	river.AddWorker(workers, NewBoosterSweepWorker(ctxLogger, expirer))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			queueName: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(sweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return BoosterSweepJob{}, &river.InsertOpts{Queue: queueName}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{client: client, logger: ctxLogger, metrics: metrics}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting wallet queue service")
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop stops the River client, waiting for running jobs.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping wallet queue service")
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

// ScheduleBoosterExpiry inserts a booster_expired job at expiresAt.
func (s *Service) ScheduleBoosterExpiry(ctx context.Context, userUUID uuid.UUID, expiresAt time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_booster_expiry", "river")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "schedule_booster_expiry", "river", time.Since(start))
	}()

	res, err := s.client.Insert(ctx, BoosterExpiredJob{
		UserUUID:  userUUID.String(),
		ExpiresAt: expiresAt.Unix(),
	}, &river.InsertOpts{
		Queue:       queueName,
		ScheduledAt: expiresAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_booster_expiry", "river")
		return fmt.Errorf("failed to schedule booster expiry: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_booster_expiry", "river")
	s.logger.InfoContext(ctx, "Booster expiry scheduled",
		attr.UserUUID(userUUID),
		attr.Time("expires_at", expiresAt),
		attr.Int64("job_id", res.Job.ID),
	)
	return nil
}
