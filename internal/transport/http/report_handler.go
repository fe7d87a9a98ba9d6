package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/afero"

	"sprintpulse/internal/dataprocessing"
	apierrors "sprintpulse/internal/errors"
	"sprintpulse/internal/exporter"
	"sprintpulse/internal/files"
	"sprintpulse/internal/middleware"
	"sprintpulse/internal/services"
	"sprintpulse/pkg/contracts/domain"
)

// Multipart field names of the three Jira extracts
const (
	FieldEntities = "entities"
	FieldHistory  = "history"
	FieldSprints  = "sprints"
)

// Response formats of the report endpoints
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// reportQuery holds the parameters shared by the report endpoints
type reportQuery struct {
	Kind    string `json:"kind" validate:"omitempty,oneof=todo in-progress done"`
	Until   string `json:"until" validate:"omitempty,datetime=2006-01-02"`
	Sprint  string `json:"sprint" validate:"max=256"`
	TaskIDs string `json:"task_ids" validate:"max=4096"`
	Format  string `json:"format" validate:"omitempty,oneof=json csv xlsx"`
}

// ReportHandler serves the sprint workload reports computed from uploaded
// Jira extracts
type ReportHandler struct {
	service      ReportServiceInterface
	fs           afero.Fs
	tempDir      string
	workbook     *exporter.WorkbookWriter
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler. Uploads are staged in
// per-request workspaces under tempDir on fsys.
func NewReportHandler(service ReportServiceInterface, fsys afero.Fs, tempDir string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	logger = logger.With(slog.String("component", "report_handler"))
	return &ReportHandler{
		service:      service,
		fs:           fsys,
		tempDir:      tempDir,
		workbook:     exporter.NewWorkbookWriter(fsys, logger),
		validator:    middleware.NewValidator(logger),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the report routes to r
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
		r.Post("/metrics", h.AllMetrics)
		r.Post("/metrics/{kind}", h.Metric)
		r.Post("/summary", h.Summary)
		r.Post("/variance", h.Variance)
	})
}

// Metric handles POST /api/metrics/{kind}
func (h *ReportHandler) Metric(w http.ResponseWriter, r *http.Request) {
	q, until, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	kind, err := domain.ParseMetricKind(q.Kind)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("kind", err.Error()))
		return
	}

	result, err := h.metrics(r, []domain.MetricKind{kind}, until)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	report := result.Reports[0]

	switch q.Format {
	case FormatCSV:
		attachment(w, contentTypeCSV, exporter.MetricFileName(report))
		if err := exporter.Encode(w, exporter.WriteOptions{
			Headers: exporter.MetricHeaders(kind),
			Records: exporter.MetricRecords(report.Rows),
		}); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to stream metric csv", slog.String("error", err.Error()))
		}
		return
	case FormatXLSX:
		h.writeWorkbook(w, r, exporter.Workbook{Metrics: result.Reports}, report.Kind.FileStem()+".xlsx")
		return
	}

	rows := report.Rows
	if rows == nil {
		rows = []domain.SprintMetric{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"kind":     report.Kind,
		"until":    report.Until,
		"data":     rows,
		"count":    len(rows),
		"cleaning": result.Cleaning,
	})
}

// AllMetrics handles POST /api/metrics
func (h *ReportHandler) AllMetrics(w http.ResponseWriter, r *http.Request) {
	q, until, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.Format == FormatCSV {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "csv export needs a single metric kind"))
		return
	}

	result, err := h.metrics(r, domain.AllMetricKinds, until)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if q.Format == FormatXLSX {
		h.writeWorkbook(w, r, exporter.Workbook{Metrics: result.Reports}, "sprint_metrics.xlsx")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"until":    dataprocessing.FormatCutoff(until),
		"data":     result.Reports,
		"count":    len(result.Reports),
		"cleaning": result.Cleaning,
	})
}

// Summary handles POST /api/summary?sprint=
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q, until, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.Sprint == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sprint", "sprint is required"))
		return
	}

	ws, paths, err := h.receiveTables(r, FieldEntities, FieldHistory, FieldSprints)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer ws.Remove()

	summary, err := h.service.Summary(r.Context(), tablePaths(paths), q.Sprint, until)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if q.Format == FormatCSV {
		attachment(w, contentTypeCSV, "sprint_summary.csv")
		if err := exporter.Encode(w, exporter.WriteOptions{
			Headers: exporter.SummaryHeaders,
			Records: [][]string{exporter.SummaryRecord(summary)},
		}); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to stream summary csv", slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// Variance handles POST /api/variance?sprint= or ?task_ids=1,2,3. Only the
// entities and sprints extracts are read; sprints may be omitted when
// task_ids is given.
func (h *ReportHandler) Variance(w http.ResponseWriter, r *http.Request) {
	q, _, err := h.query(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	ids, err := parseTaskIDs(q.TaskIDs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.Sprint == "" && len(ids) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sprint", "sprint or task_ids is required"))
		return
	}

	fields := []string{FieldEntities}
	if len(ids) == 0 {
		fields = append(fields, FieldSprints)
	}
	ws, paths, err := h.receiveTables(r, fields...)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer ws.Remove()

	rows, err := h.service.Variance(r.Context(), services.VarianceRequest{
		Entities: paths[FieldEntities],
		Sprints:  paths[FieldSprints],
		Sprint:   q.Sprint,
		TaskIDs:  ids,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	switch q.Format {
	case FormatCSV:
		attachment(w, contentTypeCSV, "assignee_variance.csv")
		if err := exporter.Encode(w, exporter.WriteOptions{
			Headers: exporter.VarianceHeaders,
			Records: exporter.VarianceRecords(rows),
		}); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to stream variance csv", slog.String("error", err.Error()))
		}
		return
	case FormatXLSX:
		h.writeWorkbook(w, r, exporter.Workbook{Variance: rows}, "assignee_variance.xlsx")
		return
	}

	if rows == nil {
		rows = []domain.AssigneeVariance{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// metrics stages the extracts and runs the metric pipeline for kinds
func (h *ReportHandler) metrics(r *http.Request, kinds []domain.MetricKind, until *time.Time) (*services.MetricsResult, error) {
	ws, paths, err := h.receiveTables(r, FieldEntities, FieldHistory, FieldSprints)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	h.logger.InfoContext(r.Context(), "computing metrics",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("kinds", len(kinds)),
		slog.String("until", dataprocessing.FormatCutoff(until)),
	)
	return h.service.Metrics(r.Context(), tablePaths(paths), kinds, until)
}

// query reads and validates the report parameters
func (h *ReportHandler) query(r *http.Request) (reportQuery, *time.Time, error) {
	values := r.URL.Query()
	q := reportQuery{
		Kind:    chi.URLParam(r, "kind"),
		Until:   strings.TrimSpace(values.Get("until")),
		Sprint:  strings.TrimSpace(values.Get("sprint")),
		TaskIDs: strings.TrimSpace(values.Get("task_ids")),
		Format:  strings.ToLower(values.Get("format")),
	}
	if err := h.validator.Struct(q); err != nil {
		return q, nil, err
	}
	until, err := dataprocessing.ParseCutoff(q.Until)
	if err != nil {
		return q, nil, err
	}
	return q, until, nil
}

// receiveTables parses the form and stores each named extract in a fresh
// workspace. The caller removes the workspace.
func (h *ReportHandler) receiveTables(r *http.Request, fields ...string) (*files.Workspace, map[string]string, error) {
	if err := parseMultipart(r); err != nil {
		return nil, nil, err
	}

	ws, err := files.NewWorkspace(h.fs, h.tempDir, h.logger)
	if err != nil {
		return nil, nil, apierrors.FileSystemError("create workspace", err)
	}

	paths := make(map[string]string, len(fields))
	for _, field := range fields {
		path, _, err := saveUpload(r, ws, field, field+".csv")
		if err != nil {
			ws.Remove()
			return nil, nil, err
		}
		paths[field] = path
	}
	return ws, paths, nil
}

// writeWorkbook renders book to memory first so a failure can still be
// reported as a problem response
func (h *ReportHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, book exporter.Workbook, filename string) {
	var buf bytes.Buffer
	if err := h.workbook.WriteTo(&buf, book); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	attachment(w, contentTypeXLSX, filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream workbook", slog.String("error", err.Error()))
	}
}

func tablePaths(paths map[string]string) dataprocessing.TablePaths {
	return dataprocessing.TablePaths{
		Entities: paths[FieldEntities],
		History:  paths[FieldHistory],
		Sprints:  paths[FieldSprints],
	}
}

// parseTaskIDs parses a comma separated list of task ids
func parseTaskIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, apierrors.ErrValidation("task_ids", "task_ids must be a comma separated list of integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
