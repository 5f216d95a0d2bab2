package gameservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "GameService"

// Config holds quiz session settings.
type Config struct {
	QuestionsPerGame int
	AnswerTimeLimit  time.Duration
}

// DefaultConfig returns the standard 15 question, 10 second quiz.
func DefaultConfig() Config {
	return Config{
		QuestionsPerGame: gamedomain.DefaultQuestionsPerGame,
		AnswerTimeLimit:  gamedomain.DefaultAnswerTimeLimit,
	}
}

// GameService implements the Service interface.
type GameService struct {
	repo      gamedb.Repository
	wallet    Wallet
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher message.Publisher
	clock     clock.Clock
	cfg       Config
}

var _ Service = (*GameService)(nil)

// NewGameService creates a new GameService.
func NewGameService(
	repo gamedb.Repository,
	wallet Wallet,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher message.Publisher,
	clk clock.Clock,
	cfg Config,
) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if cfg.QuestionsPerGame <= 0 {
		cfg.QuestionsPerGame = gamedomain.DefaultQuestionsPerGame
	}
	return &GameService{
		repo:      repo,
		wallet:    wallet,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

// pendingEvent is published once the transaction has committed.
type pendingEvent struct {
	topic   string
	payload any
}

func (s *GameService) publish(ctx context.Context, events []pendingEvent) {
	for _, ev := range events {
		if err := eventbus.PublishJSON(ctx, s.publisher, ev.topic, ev.payload); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish game event",
				attr.ExtractCorrelationID(ctx),
				attr.String("topic", ev.topic),
				attr.Error(err),
			)
		}
	}
}

// unwrap converts a result into the (value, error) pair handlers expect.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, nil
	}
	return *result.Success, nil
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *GameService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.InfoContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *GameService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
