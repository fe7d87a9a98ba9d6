package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// File outcomes recorded by CSVFile
const (
	FileProcessed = "processed"
	FileSkipped   = "skipped"
	FileFailed    = "failed"
)

// PipelineMetrics holds the application-specific instruments.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	PipelineRuns        metric.Int64Counter
	PipelineDuration    metric.Float64Histogram
	RowsLoaded          metric.Int64Counter
	DuplicateRows       metric.Int64Counter
	EmptyRows           metric.Int64Counter
	CSVFilesProcessed   metric.Int64Counter
	CSVFilesSkipped     metric.Int64Counter
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the instruments on meter. A nil meter yields
// no-op instruments.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	m := &PipelineMetrics{}
	var err error

	if m.PipelineRuns, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	); err != nil {
		return nil, err
	}

	if m.PipelineDuration, err = meter.Float64Histogram(
		"pipeline_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RowsLoaded, err = meter.Int64Counter(
		"rows_loaded_total",
		metric.WithDescription("Data rows read from CSV extracts"),
	); err != nil {
		return nil, err
	}

	if m.DuplicateRows, err = meter.Int64Counter(
		"duplicate_rows_removed_total",
		metric.WithDescription("Fully duplicated rows removed"),
	); err != nil {
		return nil, err
	}

	if m.EmptyRows, err = meter.Int64Counter(
		"empty_rows_removed_total",
		metric.WithDescription("All-null rows removed"),
	); err != nil {
		return nil, err
	}

	if m.CSVFilesProcessed, err = meter.Int64Counter(
		"csv_files_processed_total",
		metric.WithDescription("CSV files deduplicated"),
	); err != nil {
		return nil, err
	}

	if m.CSVFilesSkipped, err = meter.Int64Counter(
		"csv_files_skipped_total",
		metric.WithDescription("CSV files skipped or failed during batch dedupe"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records one pipeline run of the given operation
func (m *PipelineMetrics) RecordRun(ctx context.Context, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	m.PipelineRuns.Add(ctx, 1, attrs)
	m.PipelineDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTable records loader and cleaner counts for one table
func (m *PipelineMetrics) RecordTable(ctx context.Context, table string, loaded, duplicates, empty int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("table", table))
	m.RowsLoaded.Add(ctx, int64(loaded), attrs)
	m.DuplicateRows.Add(ctx, int64(duplicates), attrs)
	m.EmptyRows.Add(ctx, int64(empty), attrs)
}

// CSVFile records the outcome of one file in a batch dedupe
func (m *PipelineMetrics) CSVFile(ctx context.Context, source, outcome string, duplicates int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("source", source))
	if outcome == FileProcessed {
		m.CSVFilesProcessed.Add(ctx, 1, attrs)
		m.DuplicateRows.Add(ctx, int64(duplicates), metric.WithAttributes(attribute.String("table", "upload")))
		return
	}
	m.CSVFilesSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// HTTPRequest records one served request
func (m *PipelineMetrics) HTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
