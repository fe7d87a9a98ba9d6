package http

import (
	"context"
	"io"
	"time"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/services"
	"sprintpulse/internal/storage"
	"sprintpulse/pkg/contracts/domain"
)

// ReportServiceInterface defines the interface for the sprint report pipeline
type ReportServiceInterface interface {
	Metrics(ctx context.Context, paths dataprocessing.TablePaths, kinds []domain.MetricKind, until *time.Time) (*services.MetricsResult, error)
	Summary(ctx context.Context, paths dataprocessing.TablePaths, sprint string, until *time.Time) (domain.SprintSummary, error)
	Variance(ctx context.Context, req services.VarianceRequest) ([]domain.AssigneeVariance, error)
}

// DedupeServiceInterface defines the interface for CSV deduplication
type DedupeServiceInterface interface {
	DedupeZip(ctx context.Context, src, dst string) (map[string]int, error)
	DedupeCSV(ctx context.Context, name string, r io.Reader, w io.Writer) (domain.DedupeOutcome, error)
	ProcessRemote(ctx context.Context, bucket, folder string) (*storage.RelayResult, error)
}

// Ensure the concrete services satisfy the interfaces
var (
	_ ReportServiceInterface = (*services.ReportService)(nil)
	_ DedupeServiceInterface = (*services.DedupeService)(nil)
)
