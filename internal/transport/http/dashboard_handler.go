package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "energydash/internal/errors"
	"energydash/internal/exporter"
	appmw "energydash/internal/middleware"
	"energydash/internal/session"
	api "energydash/pkg/contracts/api/v1"
)

// DashboardService is the part of services.DashboardService the handler uses.
type DashboardService interface {
	Datasets(ctx context.Context) (*api.DatasetsResponse, error)
	Aggregate(ctx context.Context, sess *session.Session, req api.AggregateRequest) (*api.AggregateResponse, error)
	Regression(ctx context.Context, sess *session.Session, req api.AggregateRequest) (*api.RegressionResponse, error)
	Export(ctx context.Context, sess *session.Session, req api.AggregateRequest, format exporter.Format, out io.Writer) error
	Reload(ctx context.Context) (*api.ReloadResponse, error)
}

// DashboardHandler serves the /api/dashboard routes.
type DashboardHandler struct {
	service      DashboardService
	validator    *appmw.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, validator *appmw.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "dashboard")),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validator.ValidateRequest)

	r.Get("/datasets", h.Datasets)
	r.With(appmw.TraceOperation("dashboard.aggregate")).Post("/aggregate", h.Aggregate)
	r.With(appmw.TraceOperation("dashboard.regression")).Post("/regression", h.Regression)
	r.With(appmw.TraceOperation("dashboard.export")).Post("/export", h.Export)
	r.With(appmw.TraceOperation("dashboard.reload")).Post("/reload", h.Reload)
	return r
}

// Datasets handles GET /api/dashboard/datasets
func (h *DashboardHandler) Datasets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Datasets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// Aggregate handles POST /api/dashboard/aggregate
func (h *DashboardHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Aggregate(r.Context(), sessionOf(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	annotate(r.Context(), req, len(resp.Result.Rows))
	render.JSON(w, r, resp)
}

// Regression handles POST /api/dashboard/regression
func (h *DashboardHandler) Regression(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.service.Regression(r.Context(), sessionOf(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	annotate(r.Context(), req, len(resp.Result.Rows))
	render.JSON(w, r, resp)
}

// Export handles POST /api/dashboard/export?format=csv|xlsx. The format may
// also be given in the body; the query parameter wins.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if !h.decode(w, r, &req) {
		return
	}
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = req.Format
	}
	format, err := exporter.ParseFormat(raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Buffer so a pipeline error can still become a problem response.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), sessionOf(r), req.AggregateRequest, format, &buf); err != nil {
		h.fail(w, r, err)
		return
	}

	name := req.Dataset + "_" + req.Metric + "_" + req.Granularity
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(name)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// Reload handles POST /api/dashboard/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "snapshot reloaded on request",
		slog.Int("datasets", len(resp.Datasets)),
		slog.String("duration", resp.Duration),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, resp)
}

func (h *DashboardHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := h.validator.DecodeAndValidate(r, dst); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

func annotate(ctx context.Context, req api.AggregateRequest, rows int) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("dashboard.dataset", req.Dataset),
		attribute.String("dashboard.metric", req.Metric),
		attribute.String("dashboard.granularity", req.Granularity),
		attribute.Int("dashboard.rows", rows),
	)
}

func sessionOf(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}
