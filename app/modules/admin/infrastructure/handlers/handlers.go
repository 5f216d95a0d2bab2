package adminhandlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	adminservice "github.com/Black-And-White-Club/dingleup/app/modules/admin/application"
	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/httpx"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxUploadBytes caps question spreadsheet uploads.
	MaxUploadBytes = 10 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AdminHandlers implements the Handlers interface.
type AdminHandlers struct {
	service adminservice.Service
	clock   clock.Clock
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAdminHandlers creates a new AdminHandlers instance.
func NewAdminHandlers(service adminservice.Service, clk clock.Clock, logger *slog.Logger, tracer trace.Tracer) Handlers {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &AdminHandlers{
		service: service,
		clock:   clk,
		logger:  logger,
		tracer:  tracer,
	}
}

// parseRange reads ?from= and ?to=.
func (h *AdminHandlers) parseRange(w http.ResponseWriter, r *http.Request) (admindomain.Range, bool) {
	q := r.URL.Query()
	rng, err := admindomain.ParseRange(q.Get("from"), q.Get("to"), h.clock.Now())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return admindomain.Range{}, false
	}
	return rng, true
}

func (h *AdminHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleSummary")
	defer span.End()

	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	report, err := h.service.Summary(ctx, rng)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *AdminHandlers) HandleGamesChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleGamesChart")
	defer span.End()

	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	png, err := h.service.GamesChart(ctx, rng)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeBytes(w, "image/png", "", png)
}

func (h *AdminHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleExport")
	defer span.End()

	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	data, err := h.service.Export(ctx, rng)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("dingleup-%s-%s.xlsx", rng.From.Format("20060102"), rng.To.Format("20060102"))
	writeBytes(w, xlsxContentType, name, data)
}

// HandleImportQuestions accepts a multipart "file" field or a raw XLSX body.
func (h *AdminHandlers) HandleImportQuestions(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleImportQuestions")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var src io.Reader = r.Body
	if err := r.ParseMultipartForm(MaxUploadBytes); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		src = file
	} else if !errors.Is(err, http.ErrNotMultipart) {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.ImportQuestions(ctx, src)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func writeBytes(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AdminHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gamedomain.ErrInvalidSpreadsheet):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Admin request failed", attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
