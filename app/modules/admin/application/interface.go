package adminservice

import (
	"context"
	"io"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
)

// Service serves the admin dashboard.
type Service interface {
	Summary(ctx context.Context, r admindomain.Range) (*Report, error)
	GamesChart(ctx context.Context, r admindomain.Range) ([]byte, error)
	Export(ctx context.Context, r admindomain.Range) ([]byte, error)
	ImportQuestions(ctx context.Context, src io.Reader) (*gameservice.ImportReport, error)
}

// QuestionImporter loads a question spreadsheet into the bank.
type QuestionImporter interface {
	ImportQuestions(ctx context.Context, src io.Reader) (*gameservice.ImportReport, error)
}

// Report is the dashboard payload.
type Report struct {
	admindomain.Summary
	WinRate float64                `json:"win_rate"`
	Daily   []admindomain.DayCount `json:"daily"`
}
