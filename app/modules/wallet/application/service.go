package walletservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	walletdb "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories"
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

const serviceName = "WalletService"

// Config holds the lives economy settings.
type Config struct {
	BaseCap       int
	RegenInterval time.Duration
	StartingLives int
	StartingCoins int64
}

// DefaultConfig returns the standard economy.
func DefaultConfig() Config {
	return Config{
		BaseCap:       walletdomain.DefaultBaseCap,
		RegenInterval: walletdomain.DefaultRegenInterval,
		StartingLives: walletdomain.DefaultStartingLives,
	}
}

// WalletService implements the Service interface.
type WalletService struct {
	repo      walletdb.Repository
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher message.Publisher
	scheduler ExpiryScheduler
	clock     clock.Clock
	cfg       Config
}

var _ Service = (*WalletService)(nil)

// NewWalletService creates a new WalletService.
func NewWalletService(
	repo walletdb.Repository,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher message.Publisher,
	scheduler ExpiryScheduler,
	clk clock.Clock,
	cfg Config,
) *WalletService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &WalletService{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		scheduler: scheduler,
		clock:     clk,
		cfg:       cfg,
	}
}

// pendingEvent is published once the transaction has committed.
type pendingEvent struct {
	topic   string
	payload any
}

// outcome is the success payload of mutating operations.
type outcome struct {
	view   *WalletView
	events []pendingEvent
}

func (s *WalletService) publish(ctx context.Context, events []pendingEvent) {
	for _, ev := range events {
		if err := eventbus.PublishJSON(ctx, s.publisher, ev.topic, ev.payload); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish wallet event",
				attr.ExtractCorrelationID(ctx),
				attr.String("topic", ev.topic),
				attr.Error(err),
			)
		}
	}
}

// finish unwraps a result, publishing its events on success.
func (s *WalletService) finish(ctx context.Context, result results.OperationResult[*outcome, error], err error) (*WalletView, error) {
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	out := *result.Success
	s.publish(ctx, out.events)
	return out.view, nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *WalletService,
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

	s.logger.DebugContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

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
		s.logger.WarnContext(ctx, "Operation returned failure result",
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
	s *WalletService,
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
