package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	apperrors "sprintpulse/internal/errors"
)

const utf8BOM = "\ufeff"

// Causes of LoadErrors for extracts without content
var (
	ErrEmptyExtract = errors.New("extract is empty")
	ErrNoHeader     = errors.New("extract has no header line")
)

// LoadOptions controls how an extract is read
type LoadOptions struct {
	// Delimiter separates fields; ';' for tracker exports
	Delimiter rune
	// NullTokens are the exact cell values read as null
	NullTokens []string
}

// DefaultLoadOptions returns the options for tracker extracts
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Delimiter:  ';',
		NullTokens: []string{"", "<empty>"},
	}
}

// Loader reads banner-prefixed delimited extracts into Tables
type Loader struct {
	fs     afero.Fs
	opts   LoadOptions
	nulls  map[string]struct{}
	logger *slog.Logger
}

// NewLoader creates a loader reading from fsys
func NewLoader(fsys afero.Fs, logger *slog.Logger, opts LoadOptions) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}

	nulls := make(map[string]struct{}, len(opts.NullTokens))
	for _, tok := range opts.NullTokens {
		nulls[tok] = struct{}{}
	}

	return &Loader{
		fs:     fsys,
		opts:   opts,
		nulls:  nulls,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// LoadTables loads the entities, history and sprints extracts.
// The first failure aborts the whole load.
func (l *Loader) LoadTables(paths TablePaths) (*Tables, error) {
	tasks, err := l.LoadFile(TableTasks, paths.Entities)
	if err != nil {
		return nil, err
	}
	history, err := l.LoadFile(TableHistory, paths.History)
	if err != nil {
		return nil, err
	}
	sprints, err := l.LoadFile(TableSprints, paths.Sprints)
	if err != nil {
		return nil, err
	}
	return &Tables{Tasks: tasks, History: history, Sprints: sprints}, nil
}

// LoadFile reads the extract at path into a table called name
func (l *Loader) LoadFile(name, path string) (*Table, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewLoadError(fmt.Sprintf("%s extract not found", name), err).
				WithContext("path", path)
		}
		return nil, apperrors.NewLoadError(fmt.Sprintf("open %s extract", name), err).
			WithContext("path", path)
	}
	defer f.Close()

	table, err := l.Load(name, f)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, err
	}

	l.logger.Debug("extract loaded",
		slog.String("table", name),
		slog.String("path", path),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))

	return table, nil
}

// Load reads one extract from r. The first physical line is a banner and is
// discarded unparsed; the next record is the header.
func (l *Loader) Load(name string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if err := skipLine(br); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewLoadError(fmt.Sprintf("%s extract is empty", name), ErrEmptyExtract)
		}
		return nil, apperrors.NewLoadError(fmt.Sprintf("read %s banner", name), err)
	}

	cr := csv.NewReader(br)
	cr.Comma = l.opts.Delimiter
	cr.ReuseRecord = false
	// Free-text cells carry unescaped quotes, e.g. Fix "login" page
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewLoadError(fmt.Sprintf("%s extract has no header line", name), ErrNoHeader)
		}
		return nil, loadRowError(name, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}

	table := NewTable(name, columns...)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, loadRowError(name, err)
		}

		row := make(Row, len(record))
		for i, v := range record {
			if _, null := l.nulls[v]; null {
				row[i] = Null
			} else {
				row[i] = Text(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// skipLine consumes input up to and including the first newline
func skipLine(br *bufio.Reader) error {
	for {
		_, isPrefix, err := br.ReadLine()
		if err != nil {
			return err
		}
		if !isPrefix {
			return nil
		}
	}
}

// loadRowError converts a csv error into a LoadError naming the physical line
func loadRowError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		// csv counts lines after the banner
		line := pe.StartLine + 1
		return apperrors.NewLoadError(fmt.Sprintf("%s extract is malformed at line %d", name, line), pe.Err).
			WithContext("line", line)
	}
	return apperrors.NewLoadError(fmt.Sprintf("read %s extract", name), err)
}
