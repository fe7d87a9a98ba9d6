package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"sprintpulse/internal/config"
	"sprintpulse/internal/dataprocessing"
	apperrors "sprintpulse/internal/errors"
	"sprintpulse/internal/infrastructure"
	"sprintpulse/pkg/contracts/domain"
)

// Operation names recorded on pipeline metrics
const (
	OpMetrics  = "metrics"
	OpSummary  = "summary"
	OpVariance = "variance"
)

// RulesFromConfig builds status rules from the pipeline section, keeping the
// defaults for any empty set
func RulesFromConfig(cfg config.PipelineConfig) dataprocessing.StatusRules {
	rules := dataprocessing.DefaultStatusRules()
	if len(cfg.ToDoStatuses) > 0 {
		rules.ToDo = cfg.ToDoStatuses
	}
	if len(cfg.InProgressStatuses) > 0 {
		rules.InProgress = cfg.InProgressStatuses
	}
	if len(cfg.DoneStatuses) > 0 {
		rules.Done = cfg.DoneStatuses
	}
	if len(cfg.ExcludedResolutions) > 0 {
		rules.ExcludedResolutions = cfg.ExcludedResolutions
	}
	if len(cfg.BacklogStatuses) > 0 {
		rules.Backlog = cfg.BacklogStatuses
	}
	return rules
}

// RecordOptionsFromConfig returns the typed-record options of the pipeline section
func RecordOptionsFromConfig(cfg config.PipelineConfig) dataprocessing.RecordOptions {
	opts := dataprocessing.DefaultRecordOptions()
	if len(cfg.HistoryDateLayouts) > 0 {
		opts.DateLayouts = cfg.HistoryDateLayouts
	}
	return opts
}

// Prepared is the cleaned and merged form of one set of extracts
type Prepared struct {
	Reports []dataprocessing.CleanReport
	Merged  []domain.MergedRow
}

// MetricsResult is the output of a metrics run
type MetricsResult struct {
	Reports  []domain.MetricReport
	Cleaning []dataprocessing.CleanReport
}

// VarianceRequest selects the task subset of a variance run. TaskIDs wins
// over Sprint when both are set.
type VarianceRequest struct {
	Entities string
	Sprints  string
	Sprint   string
	TaskIDs  []int64
}

// ReportService runs the load, clean, merge and metric stages over extracts
// stored on its filesystem
type ReportService struct {
	loader     *dataprocessing.Loader
	cleaner    *dataprocessing.Cleaner
	calculator *dataprocessing.Calculator
	recordOpts dataprocessing.RecordOptions
	metrics    *infrastructure.PipelineMetrics
	logger     *slog.Logger
}

// NewReportService creates a report service reading from fsys
func NewReportService(fsys afero.Fs, cfg config.PipelineConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		loader:     dataprocessing.NewLoader(fsys, logger, dataprocessing.DefaultLoadOptions()),
		cleaner:    dataprocessing.NewCleaner(logger),
		calculator: dataprocessing.NewCalculator(RulesFromConfig(cfg), logger),
		recordOpts: RecordOptionsFromConfig(cfg),
		metrics:    metrics,
		logger:     infrastructure.WithComponent(logger, "report_service"),
	}
}

// Rules returns the status rules used for every metric
func (s *ReportService) Rules() dataprocessing.StatusRules {
	return s.calculator.Rules()
}

// Prepare loads, cleans and merges the three extracts
func (s *ReportService) Prepare(ctx context.Context, paths dataprocessing.TablePaths) (*Prepared, error) {
	tables, err := s.load(ctx, paths)
	if err != nil {
		return nil, err
	}

	cleaned, reports := s.clean(ctx, tables)

	_, span := infrastructure.StartSpan(ctx, "merge")
	defer span.End()
	merged, err := dataprocessing.MergeTables(cleaned, s.recordOpts)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("merged_rows", len(merged)))

	s.logger.InfoContext(ctx, "Extracts merged", slog.Int("rows", len(merged)))
	return &Prepared{Reports: reports, Merged: merged}, nil
}

// Metrics computes the requested metrics as of until (nil for no cutoff).
// An empty kinds list computes all three.
func (s *ReportService) Metrics(ctx context.Context, paths dataprocessing.TablePaths, kinds []domain.MetricKind, until *time.Time) (result *MetricsResult, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, OpMetrics, time.Since(start), err) }()

	if len(kinds) == 0 {
		kinds = domain.AllMetricKinds
	}

	prepared, err := s.Prepare(ctx, paths)
	if err != nil {
		return nil, err
	}

	spanCtx, span := infrastructure.StartSpan(ctx, "metric",
		attribute.Int("kinds", len(kinds)),
		attribute.String("until", dataprocessing.FormatCutoff(until)))
	defer span.End()

	reports := s.calculator.ComputeKinds(spanCtx, kinds, prepared.Merged, until)
	return &MetricsResult{Reports: reports, Cleaning: prepared.Reports}, nil
}

// Summary builds the dashboard summary of one sprint
func (s *ReportService) Summary(ctx context.Context, paths dataprocessing.TablePaths, sprint string, until *time.Time) (summary domain.SprintSummary, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, OpSummary, time.Since(start), err) }()

	if sprint == "" {
		return domain.SprintSummary{}, apperrors.NewAppValidationError("sprint name is required")
	}

	prepared, err := s.Prepare(ctx, paths)
	if err != nil {
		return domain.SprintSummary{}, err
	}

	_, span := infrastructure.StartSpan(ctx, "summary", attribute.String("sprint", sprint))
	defer span.End()

	summary, err = dataprocessing.SummarizeSprint(prepared.Merged, sprint, until, s.calculator.Rules())
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return domain.SprintSummary{}, err
	}
	return summary, nil
}

// Variance computes per-assignee estimation variance over a sprint or an
// explicit set of task ids. Only the tasks and sprints extracts are read.
func (s *ReportService) Variance(ctx context.Context, req VarianceRequest) (rows []domain.AssigneeVariance, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, OpVariance, time.Since(start), err) }()

	if req.Sprint == "" && len(req.TaskIDs) == 0 {
		return nil, apperrors.NewAppValidationError("a sprint name or task ids are required")
	}

	loadCtx, span := infrastructure.StartSpan(ctx, "load")
	tasks, err := s.loader.LoadFile(dataprocessing.TableTasks, req.Entities)
	if err != nil {
		infrastructure.RecordError(loadCtx, err)
		span.End()
		return nil, err
	}
	sprints := dataprocessing.NewTable(dataprocessing.TableSprints,
		dataprocessing.ColSprintName, dataprocessing.ColEntityIDs)
	if len(req.TaskIDs) == 0 {
		if sprints, err = s.loader.LoadFile(dataprocessing.TableSprints, req.Sprints); err != nil {
			infrastructure.RecordError(loadCtx, err)
			span.End()
			return nil, err
		}
	}
	span.End()

	tables := &dataprocessing.Tables{
		Tasks:   tasks,
		History: dataprocessing.NewTable(dataprocessing.TableHistory, dataprocessing.ColEntityID, dataprocessing.ColHistoryDate),
		Sprints: sprints,
	}
	cleaned, _ := s.clean(ctx, tables)

	ds, err := dataprocessing.BuildDataset(cleaned, s.recordOpts)
	if err != nil {
		return nil, err
	}

	ids := req.TaskIDs
	if len(ids) == 0 {
		if ids, err = dataprocessing.SprintMembers(ds.Sprints, req.Sprint); err != nil {
			return nil, err
		}
	}

	_, vspan := infrastructure.StartSpan(ctx, "variance", attribute.Int("tasks", len(ids)))
	defer vspan.End()
	rows = dataprocessing.ComputeVariance(ds.Tasks, ids)

	s.logger.InfoContext(ctx, "Variance computed",
		slog.String("sprint", req.Sprint),
		slog.Int("tasks", len(ids)),
		slog.Int("assignees", len(rows)))
	return rows, nil
}

func (s *ReportService) load(ctx context.Context, paths dataprocessing.TablePaths) (*dataprocessing.Tables, error) {
	ctx, span := infrastructure.StartSpan(ctx, "load")
	defer span.End()

	tables, err := s.loader.LoadTables(paths)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "Extract load failed", slog.String("error", err.Error()))
		return nil, err
	}
	return tables, nil
}

func (s *ReportService) clean(ctx context.Context, tables *dataprocessing.Tables) (*dataprocessing.Tables, []dataprocessing.CleanReport) {
	ctx, span := infrastructure.StartSpan(ctx, "clean")
	defer span.End()

	cleaned, reports := s.cleaner.Clean(ctx, tables)
	for _, r := range reports {
		s.metrics.RecordTable(ctx, r.Table, r.Rows, r.Duplicates, r.EmptyRows)
	}
	return cleaned, reports
}
