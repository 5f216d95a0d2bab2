package adminservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	admindb "github.com/Black-And-White-Club/dingleup/app/modules/admin/infrastructure/repositories"
	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "AdminService"

type service struct {
	repo      admindb.Repository
	questions QuestionImporter
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
}

// NewService creates the admin service.
func NewService(
	repo admindb.Repository,
	questions QuestionImporter,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
) Service {
	return &service{
		repo:      repo,
		questions: questions,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
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

func (s *service) Summary(ctx context.Context, r admindomain.Range) (report *Report, err error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Summary")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "Summary", start, err) }(time.Now())

	return s.summary(ctx, r)
}

func (s *service) summary(ctx context.Context, r admindomain.Range) (*Report, error) {
	sum := admindomain.Summary{Range: r}
	var err error

	if sum.RegisteredUsers, sum.NewUsers, err = s.repo.CountUsers(ctx, r); err != nil {
		return nil, err
	}
	if sum.GamesPlayed, sum.GamesWon, err = s.repo.GameTotals(ctx, r); err != nil {
		return nil, err
	}
	if sum.CoinsEarned, sum.CoinsSpent, err = s.repo.CoinTotals(ctx, r); err != nil {
		return nil, err
	}
	if sum.BoostersActivated, err = s.repo.CountBoosters(ctx, r); err != nil {
		return nil, err
	}
	daily, err := s.repo.DailyGames(ctx, r)
	if err != nil {
		return nil, err
	}

	return &Report{
		Summary: sum,
		WinRate: sum.WinRate(),
		Daily:   admindomain.FillDays(r, daily),
	}, nil
}

func (s *service) GamesChart(ctx context.Context, r admindomain.Range) (png []byte, err error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.GamesChart")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "GamesChart", start, err) }(time.Now())

	daily, err := s.repo.DailyGames(ctx, r)
	if err != nil {
		return nil, err
	}
	png, err = RenderGamesChart(admindomain.FillDays(r, daily), DefaultPalette)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return png, nil
}

func (s *service) Export(ctx context.Context, r admindomain.Range) (data []byte, err error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Export")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "Export", start, err) }(time.Now())

	report, err := s.summary(ctx, r)
	if err != nil {
		return nil, err
	}
	data, err = BuildWorkbook(report)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	return data, nil
}

func (s *service) ImportQuestions(ctx context.Context, src io.Reader) (report *gameservice.ImportReport, err error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.ImportQuestions")
	defer span.End()
	defer func(start time.Time) { s.record(ctx, "ImportQuestions", start, err) }(time.Now())

	report, err = s.questions.ImportQuestions(ctx, src)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Questions imported",
		attr.Int("imported", report.Imported),
		attr.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}
