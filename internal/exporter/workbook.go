package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"sprintpulse/pkg/contracts/domain"
)

const (
	defaultSheet  = "Sheet1"
	varianceSheet = "Variance"
	summarySheet  = "Summary"
)

// WorkbookWriter exports reports into a single Excel workbook, one sheet per
// metric plus optional variance and summary sheets
type WorkbookWriter struct {
	fs     afero.Fs
	logger *slog.Logger
}

// Workbook holds everything that goes into one export
type Workbook struct {
	Metrics   []domain.MetricReport
	Variance  []domain.AssigneeVariance
	Summaries []domain.SprintSummary
}

// NewWorkbookWriter creates a workbook writer on fs
func NewWorkbookWriter(fs afero.Fs, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{
		fs:     fs,
		logger: logger.With(slog.String("component", "workbook_writer")),
	}
}

// SheetName returns the worksheet name of a metric report
func SheetName(kind domain.MetricKind) string {
	return kind.Title()
}

// Build assembles the workbook in memory
func (w *WorkbookWriter) Build(book Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	sheets := 0
	add := func(name string, headers []string, records [][]string) error {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, headers, records); err != nil {
			return err
		}
		sheets++
		return nil
	}

	for _, report := range book.Metrics {
		if err := add(SheetName(report.Kind), MetricHeaders(report.Kind), MetricRecords(report.Rows)); err != nil {
			f.Close()
			return nil, err
		}
	}
	if len(book.Variance) > 0 {
		if err := add(varianceSheet, VarianceHeaders, VarianceRecords(book.Variance)); err != nil {
			f.Close()
			return nil, err
		}
	}
	if len(book.Summaries) > 0 {
		records := make([][]string, 0, len(book.Summaries))
		for _, s := range book.Summaries {
			records = append(records, SummaryRecord(s))
		}
		if err := add(summarySheet, SummaryHeaders, records); err != nil {
			f.Close()
			return nil, err
		}
	}

	if sheets > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}
	return f, nil
}

// WriteTo streams the workbook as .xlsx into out
func (w *WorkbookWriter) WriteTo(out io.Writer, book Workbook) error {
	f, err := w.Build(book)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes the workbook to path on the writer's filesystem
func (w *WorkbookWriter) Save(path string, book Workbook) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := w.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook file: %w", err)
	}

	if err := w.WriteTo(file, book); err != nil {
		file.Close()
		return err
	}

	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("metric_sheets", len(book.Metrics)),
		slog.Int("variance_rows", len(book.Variance)))
	return file.Close()
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 20)
}
