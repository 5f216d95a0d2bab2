package leaderboardservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	leaderboardcache "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "LeaderboardService"

// Config holds ranking and caching settings.
type Config struct {
	TopN     int
	CacheTTL time.Duration
}

// DefaultConfig returns a top 100 cached for a minute.
func DefaultConfig() Config {
	return Config{TopN: 100, CacheTTL: time.Minute}
}

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	repo      leaderboarddb.Repository
	cache     leaderboardcache.Cache
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
	publisher message.Publisher
	clock     clock.Clock
	cfg       Config
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	repo leaderboarddb.Repository,
	cache leaderboardcache.Cache,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	publisher message.Publisher,
	clk clock.Clock,
	cfg Config,
) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if cache == nil {
		cache = leaderboardcache.NewMemory(clk)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	return &LeaderboardService{
		repo:      repo,
		cache:     cache,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
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
	s *LeaderboardService,
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

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}
