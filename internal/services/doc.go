// Package services implements the business logic layer between the HTTP
// handlers and CLI commands on one side and the data pipeline on the other.
//
// # Available Services
//
//	- ReportService: load, clean and merge the tracker extracts, then compute
//	  sprint metrics, per-assignee variance or a sprint summary
//	- DedupeService: duplicate removal for a single CSV, a ZIP batch or a
//	  remote object-storage folder
//	- HealthService: liveness, readiness and version information
//
// # Tracing and Metrics
//
// Every ReportService run opens one span per stage (load, clean, merge,
// metric) on the process tracer and records its duration and outcome on
// infrastructure.PipelineMetrics. Cleaner counts are recorded per table.
// Dedupe runs record one outcome per CSV, tagged with the batch source.
//
// # Error Handling
//
// Services return *errors.AppError values from the pipeline unchanged so the
// HTTP layer can map them to status codes:
//
//	- LOAD, PARSE and FORMAT for unusable extracts
//	- VALIDATION for missing request input
//	- NOT_FOUND for an unknown sprint
//	- STORAGE for remote transfer failures
package services
