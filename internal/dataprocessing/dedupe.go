package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/internal/exporter"
	"sprintpulse/pkg/contracts/domain"
)

// ProcessedSuffix is appended to the base name of a deduplicated file
const ProcessedSuffix = "_processed"

// DedupeLoadOptions returns the loader options of the dedupe utility. Only
// the empty string is null, so "<empty>" cells pass through verbatim.
func DedupeLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: ';', NullTokens: []string{""}}
}

// ProcessedPath returns <dir>/<base>_processed.csv for path
func ProcessedPath(path string) string {
	dir, file := filepath.Split(path)
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return filepath.Join(dir, base+ProcessedSuffix+".csv")
}

// IsSkipped reports whether a dedupe failed only because the input has no
// usable data rows
func IsSkipped(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypeFormat)
}

// DedupeReader reads a banner-prefixed ';' extract from r, drops full
// duplicate rows and writes the header and remaining rows to w as ','
// delimited CSV without a banner. Nothing is written when the input has no
// data rows; the returned error then satisfies IsSkipped.
func DedupeReader(name string, r io.Reader, w io.Writer) (domain.DedupeOutcome, error) {
	outcome := domain.DedupeOutcome{Source: name}

	loader := NewLoader(nil, nil, DedupeLoadOptions())
	table, err := loader.Load(name, r)
	if err != nil {
		if errors.Is(err, ErrEmptyExtract) || errors.Is(err, ErrNoHeader) {
			return outcome, apperrors.NewFormatError(fmt.Sprintf("%s has no header line", name), err)
		}
		return outcome, err
	}
	if table.Len() == 0 {
		return outcome, apperrors.NewFormatError(fmt.Sprintf("%s has no data rows", name), nil)
	}

	deduped, mask := RemoveFullDuplicates(table)
	for _, dup := range mask {
		if dup {
			outcome.Duplicates++
		}
	}
	outcome.Rows = deduped.Len()

	sw, err := exporter.NewStreamWriter(nopCloser{w}, deduped.Columns)
	if err != nil {
		return outcome, err
	}
	for _, row := range deduped.Rows {
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = c.Value
		}
		if err := sw.WriteRecord(record); err != nil {
			return outcome, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := sw.Close(); err != nil {
		return outcome, fmt.Errorf("flush %s: %w", name, err)
	}
	return outcome, nil
}

// DedupeFile deduplicates the extract at path into ProcessedPath(path) on
// fsys. A skipped input leaves no output file behind.
func DedupeFile(fsys afero.Fs, path string) (domain.DedupeOutcome, error) {
	return DedupeFileTo(fsys, path, ProcessedPath(path))
}

// DedupeFileTo is DedupeFile with an explicit output path
func DedupeFileTo(fsys afero.Fs, path, output string) (domain.DedupeOutcome, error) {
	name := filepath.Base(path)
	in, err := fsys.Open(path)
	if err != nil {
		return domain.DedupeOutcome{Source: name}, apperrors.NewLoadError(fmt.Sprintf("open %s", name), err).
			WithContext("path", path)
	}
	defer in.Close()

	if err := fsys.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return domain.DedupeOutcome{Source: name}, fmt.Errorf("create %s: %w", filepath.Dir(output), err)
	}
	out, err := fsys.Create(output)
	if err != nil {
		return domain.DedupeOutcome{Source: name}, fmt.Errorf("create %s: %w", output, err)
	}

	outcome, err := DedupeReader(name, in, out)
	cerr := out.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		_ = fsys.Remove(output)
		return outcome, err
	}

	outcome.Output = output
	return outcome, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
