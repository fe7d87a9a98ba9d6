package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/files"
	"sprintpulse/internal/infrastructure"
	"sprintpulse/internal/storage"
	"sprintpulse/pkg/contracts/domain"
)

// Sources recorded on per-file dedupe metrics
const (
	SourceZip    = "zip"
	SourceCSV    = "csv"
	SourceRemote = "remote"
	SourceFile   = "file"
)

// DedupeOptions configures a DedupeService
type DedupeOptions struct {
	TempDir         string
	Workers         int
	MaxEntryBytes   int64
	Bucket          string
	ProcessedPrefix string
}

// DedupeService removes full-duplicate rows from uploaded CSVs, ZIP batches
// and remote folders
type DedupeService struct {
	fs      afero.Fs
	opts    DedupeOptions
	store   storage.ObjectStore
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewDedupeService creates a dedupe service. store may be nil, in which case
// remote runs fail with storage.ErrNotConfigured.
func NewDedupeService(fsys afero.Fs, store storage.ObjectStore, opts DedupeOptions, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *DedupeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupeService{
		fs:      fsys,
		opts:    opts,
		store:   store,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dedupe_service"),
	}
}

// RemoteEnabled reports whether a remote store is configured
func (s *DedupeService) RemoteEnabled() bool {
	return s.store != nil
}

// DefaultBucket returns the bucket used when a request names none
func (s *DedupeService) DefaultBucket() string {
	return s.opts.Bucket
}

// onFile returns a callback that records a batch file on pipeline metrics
func (s *DedupeService) onFile(ctx context.Context, source string) func(files.FileResult) {
	return func(r files.FileResult) {
		outcome := infrastructure.FileProcessed
		switch {
		case r.Skipped():
			outcome = infrastructure.FileSkipped
		case r.Err != nil:
			outcome = infrastructure.FileFailed
		}
		s.metrics.CSVFile(ctx, source, outcome, r.Outcome.Duplicates)
	}
}

// DedupeZip deduplicates every CSV in the archive src into a new archive dst
// and returns the duplicate count per processed entry
func (s *DedupeService) DedupeZip(ctx context.Context, src, dst string) (counts map[string]int, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, "dedupe_zip", time.Since(start), err) }()

	ctx, span := infrastructure.StartSpan(ctx, "dedupe_zip")
	defer span.End()

	counts, err = files.ProcessZip(ctx, s.fs, src, dst, files.ZipOptions{
		TempDir:       s.opts.TempDir,
		Workers:       s.opts.Workers,
		MaxEntryBytes: s.opts.MaxEntryBytes,
		Logger:        s.logger,
		OnFile:        s.onFile(ctx, SourceZip),
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(counts)))
	return counts, nil
}

// DedupeCSV streams one uploaded CSV from r to w without its duplicate rows
func (s *DedupeService) DedupeCSV(ctx context.Context, name string, r io.Reader, w io.Writer) (outcome domain.DedupeOutcome, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, "dedupe_csv", time.Since(start), err) }()

	outcome, err = dataprocessing.DedupeReader(name, r, w)
	s.onFile(ctx, SourceCSV)(files.FileResult{Name: name, Outcome: outcome, Err: err})
	if err != nil {
		s.logger.WarnContext(ctx, "CSV dedupe failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return outcome, err
	}

	s.logger.InfoContext(ctx, "CSV deduplicated",
		slog.String("file", name),
		slog.Int("rows", outcome.Rows),
		slog.Int("duplicates", outcome.Duplicates))
	return outcome, nil
}

// DedupeFile deduplicates a CSV on the service filesystem into
// <base>_processed.csv, placed in outDir or next to the input when outDir
// is empty
func (s *DedupeService) DedupeFile(ctx context.Context, path, outDir string) (domain.DedupeOutcome, error) {
	output := dataprocessing.ProcessedPath(path)
	if outDir != "" {
		output = filepath.Join(outDir, filepath.Base(output))
	}
	outcome, err := dataprocessing.DedupeFileTo(s.fs, path, output)
	s.onFile(ctx, SourceFile)(files.FileResult{Name: path, Outcome: outcome, Err: err})
	return outcome, err
}

// ProcessRemote deduplicates the CSVs of a remote folder and uploads the
// results. An empty bucket falls back to the configured one.
func (s *DedupeService) ProcessRemote(ctx context.Context, bucket, folder string) (result *storage.RelayResult, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun(ctx, "dedupe_remote", time.Since(start), err) }()

	if bucket == "" {
		bucket = s.opts.Bucket
	}
	if bucket == "" && s.store != nil {
		return nil, ErrMissingBucket
	}

	ctx, span := infrastructure.StartSpan(ctx, "dedupe_remote",
		attribute.String("bucket", bucket),
		attribute.String("folder", folder))
	defer span.End()

	relay := storage.NewRelay(s.store, s.fs, storage.RelayOptions{
		TempDir:         s.opts.TempDir,
		ProcessedPrefix: s.opts.ProcessedPrefix,
		Logger:          s.logger,
		OnFile:          s.onFile(ctx, SourceRemote),
	})
	result, err = relay.ProcessFolder(ctx, bucket, folder)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return result, nil
}
