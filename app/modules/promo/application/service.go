package promoservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	promodb "github.com/Black-And-White-Club/dingleup/app/modules/promo/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "PromoService"

	// retention keeps a day of slack beyond the rolling window.
	retention = 2 * promodomain.Window
)

type service struct {
	repo      promodb.Repository
	db        *bun.DB
	publisher message.Publisher
	policy    promodomain.Policy
	clock     clock.Clock
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer

	mu       sync.Mutex
	notified map[uuid.UUID]bool
}

// NewService creates the promo service.
func NewService(
	repo promodb.Repository,
	db *bun.DB,
	publisher message.Publisher,
	policy promodomain.Policy,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &service{
		repo:      repo,
		db:        db,
		publisher: publisher,
		policy:    policy,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		notified:  map[uuid.UUID]bool{},
	}
}

func (s *service) record(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperationAttempt(ctx, operation, serviceName)
	s.metrics.RecordOperationDuration(ctx, operation, serviceName, time.Since(start))
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, operation, serviceName)
		return
	}
	s.metrics.RecordOperationSuccess(ctx, operation, serviceName)
}

func (s *service) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func (s *service) decide(ctx context.Context, db bun.IDB, userUUID uuid.UUID, loc *time.Location) (promodomain.Decision, error) {
	now := s.clock.Now()
	history, err := s.repo.ListShownSince(ctx, db, userUUID, now.Add(-promodomain.Window))
	if err != nil {
		return promodomain.Decision{}, err
	}
	return promodomain.Decide(now, history, loc, userUUID, s.policy), nil
}

func (s *service) Evaluate(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (decision *promodomain.Decision, err error) {
	ctx, span := s.tracer.Start(ctx, "PromoService.Evaluate")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "Evaluate", start, err) }(time.Now())

	loc, err := promodomain.Location(tzOffsetMinutes)
	if err != nil {
		return nil, err
	}
	d, err := s.decide(ctx, nil, userUUID, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *service) RecordShown(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (decision *promodomain.Decision, err error) {
	ctx, span := s.tracer.Start(ctx, "PromoService.RecordShown")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "RecordShown", start, err) }(time.Now())

	loc, err := promodomain.Location(tzOffsetMinutes)
	if err != nil {
		return nil, err
	}

	var after promodomain.Decision
	err = s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := s.repo.LockUser(ctx, db, userUUID); err != nil {
			return err
		}
		d, err := s.decide(ctx, db, userUUID, loc)
		if err != nil {
			return err
		}
		if !d.Eligible {
			return fmt.Errorf("%w: %s", promodomain.ErrNotEligible, d.Reason)
		}
		if err := s.repo.InsertImpression(ctx, db, userUUID, s.clock.Now()); err != nil {
			return err
		}
		after, err = s.decide(ctx, db, userUUID, loc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.notified, userUUID)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Promo shown",
		attr.UserUUID(userUUID),
		attr.Int("shown_today", after.ShownToday),
		attr.Int("daily_target", after.DailyTarget),
	)
	return &after, nil
}

func (s *service) CheckOnline(ctx context.Context, users []OnlineUser) (announced int, err error) {
	ctx, span := s.tracer.Start(ctx, "PromoService.CheckOnline")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "CheckOnline", start, err) }(time.Now())

	online := make(map[uuid.UUID]bool, len(users))
	var errs []error
	for _, u := range users {
		online[u.UserUUID] = true

		loc, err := promodomain.Location(u.TZOffsetMinutes)
		if err != nil {
			loc = time.UTC
		}
		d, err := s.decide(ctx, nil, u.UserUUID, loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		s.mu.Lock()
		already := s.notified[u.UserUUID]
		if d.Eligible {
			s.notified[u.UserUUID] = true
		} else {
			delete(s.notified, u.UserUUID)
		}
		s.mu.Unlock()

		if !d.Eligible || already {
			continue
		}
		if err := eventbus.PublishJSON(ctx, s.publisher, events.PromoEligibleV1, events.PromoEligiblePayloadV1{
			UserUUID:    u.UserUUID.String(),
			EvaluatedAt: s.clock.Now(),
		}); err != nil {
			s.mu.Lock()
			delete(s.notified, u.UserUUID)
			s.mu.Unlock()
			errs = append(errs, err)
			continue
		}
		announced++
	}

	s.mu.Lock()
	for id := range s.notified {
		if !online[id] {
			delete(s.notified, id)
		}
	}
	s.mu.Unlock()

	return announced, errors.Join(errs...)
}

func (s *service) Prune(ctx context.Context) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "PromoService.Prune")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "Prune", start, err) }(time.Now())

	return s.repo.DeleteBefore(ctx, nil, s.clock.Now().Add(-retention))
}
