package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"sprintpulse/internal/dataprocessing"
	"sprintpulse/internal/files"
)

// CSVContentType is set on every uploaded dedupe result
const CSVContentType = "text/csv"

// RelayResult reports one folder run
type RelayResult struct {
	URLs       []string       `json:"file_urls"`
	Duplicates map[string]int `json:"duplicates"`
	Skipped    []string       `json:"skipped,omitempty"`
}

// RelayOptions configures a Relay
type RelayOptions struct {
	TempDir         string
	ProcessedPrefix string
	Logger          *slog.Logger
	// OnFile is called once per downloaded CSV
	OnFile func(files.FileResult)
}

// Relay downloads the CSVs of a remote folder, deduplicates them and
// uploads the results under <prefix>/<uuid>/
type Relay struct {
	store  ObjectStore
	fs     afero.Fs
	opts   RelayOptions
	logger *slog.Logger
}

// NewRelay creates a relay over store using fsys for its workspaces
func NewRelay(store ObjectStore, fsys afero.Fs, opts RelayOptions) *Relay {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProcessedPrefix == "" {
		opts.ProcessedPrefix = "processed"
	}
	return &Relay{
		store:  store,
		fs:     fsys,
		opts:   opts,
		logger: logger.With(slog.String("component", "relay")),
	}
}

// ProcessFolder deduplicates every CSV directly inside folder. Files without
// data rows or with a malformed body are reported in Skipped; transfer
// failures abort the run. A folder holding no CSV yields an empty result,
// while one whose CSVs were all skipped fails with ErrNoUsableCSV.
func (r *Relay) ProcessFolder(ctx context.Context, bucket, folder string) (*RelayResult, error) {
	if r.store == nil {
		return nil, ErrNotConfigured
	}

	prefix := strings.TrimLeft(folder, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects, err := r.store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "Remote folder listed",
		slog.String("bucket", bucket),
		slog.String("folder", prefix),
		slog.Int("objects", len(objects)))

	ws, err := files.NewWorkspace(r.fs, r.opts.TempDir, r.logger)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	result := &RelayResult{URLs: []string{}, Duplicates: make(map[string]int)}
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(obj.Name, prefix)
		if name == "" || strings.HasSuffix(name, "/") || !files.IsCSV(name) {
			continue
		}

		url, res, err := r.processObject(ctx, ws, bucket, obj.Name, name)
		if err != nil {
			return nil, err
		}
		if url == "" {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		result.URLs = append(result.URLs, url)
		result.Duplicates[name] = res.Outcome.Duplicates
	}

	r.logger.InfoContext(ctx, "Remote folder processed",
		slog.String("bucket", bucket),
		slog.String("folder", prefix),
		slog.Int("uploaded", len(result.URLs)),
		slog.Int("skipped", len(result.Skipped)))
	if len(result.URLs) == 0 && len(result.Skipped) > 0 {
		return nil, ErrNoUsableCSV
	}
	return result, nil
}

// processObject downloads, deduplicates and uploads one object. An empty URL
// with a nil error means the file was skipped.
func (r *Relay) processObject(ctx context.Context, ws *files.Workspace, bucket, object, name string) (string, files.FileResult, error) {
	local := ws.Path(name)
	f, err := r.fs.Create(local)
	if err != nil {
		return "", files.FileResult{}, fmt.Errorf("failed to create %s: %w", name, err)
	}
	err = r.store.Download(ctx, bucket, object, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", files.FileResult{}, err
	}

	outcome, err := dataprocessing.DedupeFile(r.fs, local)
	res := files.FileResult{Name: name, Outcome: outcome, Err: err}
	if r.opts.OnFile != nil {
		r.opts.OnFile(res)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Remote CSV skipped",
			slog.String("object", object),
			slog.Bool("no_data", res.Skipped()),
			slog.String("error", err.Error()))
		return "", res, nil
	}

	remote := path.Join(r.opts.ProcessedPrefix, uuid.New().String(), path.Base(dataprocessing.ProcessedPath(name)))
	out, err := r.fs.Open(outcome.Output)
	if err != nil {
		return "", res, fmt.Errorf("failed to open %s: %w", outcome.Output, err)
	}
	defer out.Close()

	if err := r.store.Upload(ctx, bucket, remote, out, CSVContentType); err != nil {
		return "", res, err
	}

	url := r.store.PublicURL(bucket, remote)
	r.logger.InfoContext(ctx, "Processed file uploaded",
		slog.String("object", object),
		slog.String("url", url),
		slog.Int("duplicates", outcome.Duplicates))
	return url, res, nil
}
