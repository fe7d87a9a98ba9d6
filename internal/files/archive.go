package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"sprintpulse/internal/dataprocessing"
	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

// ProcessedPrefix starts the name of every deduplicated archive entry
const ProcessedPrefix = "processed_"

// ErrNoUsableCSV is returned when an archive yields no deduplicated file
var ErrNoUsableCSV = apperrors.NewFormatError("no valid CSV files found for processing in the ZIP archive", nil)

// FileResult is the outcome of one CSV of a batch. Err is nil for a
// processed file.
type FileResult struct {
	Name    string
	Outcome domain.DedupeOutcome
	Err     error
}

// Skipped reports whether the file had no usable data rows
func (r FileResult) Skipped() bool {
	return r.Err != nil && dataprocessing.IsSkipped(r.Err)
}

// ZipOptions configures ProcessZip
type ZipOptions struct {
	// TempDir holds the per-call workspace
	TempDir string
	// Workers bounds how many CSVs are deduplicated at once
	Workers int
	// MaxEntryBytes skips entries larger than this when positive
	MaxEntryBytes int64
	Logger        *slog.Logger
	// OnFile is called once per CSV entry, from worker goroutines
	OnFile func(FileResult)
}

// IsCSV reports whether name has a .csv extension
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// entryName validates an archive entry name and returns it cleaned.
// Absolute names and names escaping the archive root are rejected.
func entryName(name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", apperrors.NewFormatError("archive entry escapes the extraction directory", nil).
			WithContext("entry", name)
	}
	return clean, nil
}

type csvEntry struct {
	rel  string
	path string
}

// ProcessZip deduplicates every CSV inside the archive src and writes the
// results to a new archive dst, each entry renamed processed_<name> in its
// original directory. It returns the duplicate count per processed entry.
// Skipped and failed entries are logged and left out. An archive with no
// processed entry fails with ErrNoUsableCSV.
func ProcessZip(ctx context.Context, fsys afero.Fs, src, dst string, opts ZipOptions) (map[string]int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "zip_batch"), slog.String("archive", filepath.Base(src)))
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	in, err := fsys.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	zr, err := zip.NewReader(in, info.Size())
	if err != nil {
		return nil, apperrors.NewFormatError("the uploaded file is not a valid ZIP archive", err)
	}

	ws, err := NewWorkspace(fsys, opts.TempDir, logger)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	entries, err := extractCSV(ws, zr, opts.MaxEntryBytes, logger)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Archive extracted",
		slog.Int("entries", len(zr.File)),
		slog.Int("csv_files", len(entries)))

	var (
		mu      sync.Mutex
		counts  = make(map[string]int)
		outputs []csvEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outRel := path.Join(path.Dir(e.rel), ProcessedPrefix+path.Base(e.rel))
			outcome, err := dedupeInto(ws, e.path, ws.Path("out", filepath.FromSlash(outRel)))
			result := FileResult{Name: e.rel, Outcome: outcome, Err: err}
			if opts.OnFile != nil {
				opts.OnFile(result)
			}

			switch {
			case result.Skipped():
				logger.InfoContext(gctx, "CSV has no data rows, skipping", slog.String("file", e.rel))
				return nil
			case err != nil:
				logger.WarnContext(gctx, "CSV could not be processed, skipping",
					slog.String("file", e.rel),
					slog.String("error", err.Error()))
				return nil
			}

			logger.InfoContext(gctx, "CSV deduplicated",
				slog.String("file", e.rel),
				slog.Int("duplicates", outcome.Duplicates))

			mu.Lock()
			counts[e.rel] = outcome.Duplicates
			outputs = append(outputs, csvEntry{rel: outRel, path: outcome.Output})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(outputs) == 0 {
		return nil, ErrNoUsableCSV
	}

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].rel < outputs[j].rel })
	if err := writeArchive(fsys, dst, ws, outputs); err != nil {
		_ = fsys.Remove(dst)
		return nil, err
	}

	logger.InfoContext(ctx, "Archive processed",
		slog.Int("processed", len(outputs)),
		slog.Int("skipped", len(entries)-len(outputs)))
	return counts, nil
}

// extractCSV copies the CSV entries of zr into the workspace
func extractCSV(ws *Workspace, zr *zip.Reader, maxBytes int64, logger *slog.Logger) ([]csvEntry, error) {
	var entries []csvEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, err := entryName(f.Name)
		if err != nil {
			return nil, err
		}
		if !IsCSV(rel) {
			logger.Debug("Ignoring non-CSV entry", slog.String("entry", rel))
			continue
		}
		if maxBytes > 0 && f.UncompressedSize64 > uint64(maxBytes) {
			logger.Warn("CSV entry too large, skipping",
				slog.String("entry", rel),
				slog.Uint64("size_bytes", f.UncompressedSize64))
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, apperrors.NewFormatError("failed to read archive entry", err).WithContext("entry", rel)
		}
		var r io.Reader = rc
		if maxBytes > 0 {
			r = io.LimitReader(rc, maxBytes)
		}
		p, err := ws.WriteFrom(path.Join("in", rel), r)
		rc.Close()
		if err != nil {
			return nil, err
		}
		entries = append(entries, csvEntry{rel: rel, path: p})
	}
	return entries, nil
}

// dedupeInto deduplicates src into dst inside the workspace
func dedupeInto(ws *Workspace, src, dst string) (domain.DedupeOutcome, error) {
	fsys := ws.Fs()
	name := filepath.Base(src)

	in, err := fsys.Open(src)
	if err != nil {
		return domain.DedupeOutcome{Source: name}, err
	}
	defer in.Close()

	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return domain.DedupeOutcome{Source: name}, err
	}
	out, err := fsys.Create(dst)
	if err != nil {
		return domain.DedupeOutcome{Source: name}, err
	}

	outcome, err := dataprocessing.DedupeReader(name, in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fsys.Remove(dst)
		return outcome, err
	}
	outcome.Output = dst
	return outcome, nil
}

// writeArchive packs the processed files into dst
func writeArchive(fsys afero.Fs, dst string, ws *Workspace, outputs []csvEntry) error {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := fsys.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, o := range outputs {
		if err := addToArchive(zw, ws.Fs(), o); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finish output archive: %w", err)
	}
	return out.Close()
}

func addToArchive(zw *zip.Writer, fsys afero.Fs, o csvEntry) error {
	f, err := fsys.Open(o.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: o.rel, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", o.rel, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to add %s: %w", o.rel, err)
	}
	return nil
}
