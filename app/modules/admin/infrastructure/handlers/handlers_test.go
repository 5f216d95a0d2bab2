package adminhandlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adminservice "github.com/Black-And-White-Club/dingleup/app/modules/admin/application"
	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type FakeAdminService struct {
	adminservice.Service

	SummaryFunc         func(ctx context.Context, r admindomain.Range) (*adminservice.Report, error)
	GamesChartFunc      func(ctx context.Context, r admindomain.Range) ([]byte, error)
	ExportFunc          func(ctx context.Context, r admindomain.Range) ([]byte, error)
	ImportQuestionsFunc func(ctx context.Context, src io.Reader) (*gameservice.ImportReport, error)
}

func (f *FakeAdminService) Summary(ctx context.Context, r admindomain.Range) (*adminservice.Report, error) {
	return f.SummaryFunc(ctx, r)
}

func (f *FakeAdminService) GamesChart(ctx context.Context, r admindomain.Range) ([]byte, error) {
	return f.GamesChartFunc(ctx, r)
}

func (f *FakeAdminService) Export(ctx context.Context, r admindomain.Range) ([]byte, error) {
	return f.ExportFunc(ctx, r)
}

func (f *FakeAdminService) ImportQuestions(ctx context.Context, src io.Reader) (*gameservice.ImportReport, error) {
	return f.ImportQuestionsFunc(ctx, src)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newHandlers(svc *FakeAdminService) Handlers {
	return NewAdminHandlers(svc, clock.NewFakeClock(now), slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleSummary(t *testing.T) {
	var got admindomain.Range
	svc := &FakeAdminService{SummaryFunc: func(_ context.Context, r admindomain.Range) (*adminservice.Report, error) {
		got = r
		return &adminservice.Report{Summary: admindomain.Summary{Range: r, GamesPlayed: 9}}, nil
	}}
	h := newHandlers(svc)

	rec := httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/admin/summary?from=2026-03-01", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"games_played":9`)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got.From)
	assert.Equal(t, now, got.To)

	rec = httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/admin/summary?from=2026-03-20", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.SummaryFunc = func(context.Context, admindomain.Range) (*adminservice.Report, error) {
		return nil, errors.New("db down")
	}
	rec = httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/admin/summary", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleGamesChart(t *testing.T) {
	h := newHandlers(&FakeAdminService{GamesChartFunc: func(context.Context, admindomain.Range) ([]byte, error) {
		return []byte("\x89PNG"), nil
	}})

	rec := httptest.NewRecorder()
	h.HandleGamesChart(rec, httptest.NewRequest(http.MethodGet, "/api/admin/charts/games.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestHandleExport(t *testing.T) {
	h := newHandlers(&FakeAdminService{ExportFunc: func(context.Context, admindomain.Range) ([]byte, error) {
		return []byte("PK"), nil
	}})

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/api/admin/export.xlsx?from=2026-03-01&to=2026-03-07", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dingleup-20260301-20260308.xlsx")
}

func TestHandleImportQuestions(t *testing.T) {
	var received []byte
	svc := &FakeAdminService{ImportQuestionsFunc: func(_ context.Context, src io.Reader) (*gameservice.ImportReport, error) {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		received = data
		if string(data) == "broken" {
			return nil, fmt.Errorf("%w: zip: not a valid zip file", gamedomain.ErrInvalidSpreadsheet)
		}
		return &gameservice.ImportReport{Imported: 3}, nil
	}}
	h := newHandlers(svc)

	t.Run("raw body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleImportQuestions(rec, httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", strings.NewReader("workbook")))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"imported":3`)
		assert.Equal(t, "workbook", string(received))
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "questions.xlsx")
		require.NoError(t, err)
		_, _ = part.Write([]byte("uploaded"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.HandleImportQuestions(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "uploaded", string(received))
	})

	t.Run("multipart without file", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.HandleImportQuestions(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid workbook", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleImportQuestions(rec, httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", strings.NewReader("broken")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
