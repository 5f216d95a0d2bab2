package walletqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Expirer performs the wallet side of booster expiry.
type Expirer interface {
	ExpireBooster(ctx context.Context, userUUID uuid.UUID) error
	SweepExpiredBoosters(ctx context.Context) (int, error)
}

// ExpirerFuncs adapts plain functions to Expirer.
type ExpirerFuncs struct {
	Expire func(ctx context.Context, userUUID uuid.UUID) error
	Sweep  func(ctx context.Context) (int, error)
}

func (f ExpirerFuncs) ExpireBooster(ctx context.Context, userUUID uuid.UUID) error {
	return f.Expire(ctx, userUUID)
}

func (f ExpirerFuncs) SweepExpiredBoosters(ctx context.Context) (int, error) {
	return f.Sweep(ctx)
}

// BoosterExpiredWorker clears the booster named by the job.
type BoosterExpiredWorker struct {
	river.WorkerDefaults[BoosterExpiredJob]
	logger  *slog.Logger
	expirer Expirer
}

func NewBoosterExpiredWorker(logger *slog.Logger, expirer Expirer) *BoosterExpiredWorker {
	return &BoosterExpiredWorker{logger: logger, expirer: expirer}
}

func (w *BoosterExpiredWorker) Work(ctx context.Context, job *river.Job[BoosterExpiredJob]) error {
	userUUID, err := uuid.Parse(job.Args.UserUUID)
	if err != nil {
		// Retrying cannot fix a malformed id.
		w.logger.ErrorContext(ctx, "Discarding booster job with invalid user id",
			attr.String("user_uuid", job.Args.UserUUID),
			attr.Error(err),
		)
		return nil
	}
	if err := w.expirer.ExpireBooster(ctx, userUUID); err != nil {
		return fmt.Errorf("failed to expire booster: %w", err)
	}
	w.logger.InfoContext(ctx, "Booster expiry processed", attr.UserUUID(userUUID))
	return nil
}

// BoosterSweepWorker runs the periodic expiry sweep.
type BoosterSweepWorker struct {
	river.WorkerDefaults[BoosterSweepJob]
	logger  *slog.Logger
	expirer Expirer
}

func NewBoosterSweepWorker(logger *slog.Logger, expirer Expirer) *BoosterSweepWorker {
	return &BoosterSweepWorker{logger: logger, expirer: expirer}
}

func (w *BoosterSweepWorker) Work(ctx context.Context, _ *river.Job[BoosterSweepJob]) error {
	n, err := w.expirer.SweepExpiredBoosters(ctx)
	if err != nil {
		return fmt.Errorf("booster sweep failed: %w", err)
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Booster sweep expired boosters", attr.Int("count", n))
	}
	return nil
}
