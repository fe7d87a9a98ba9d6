// Package exporter writes sprint reports to disk.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing over an afero filesystem, with support for
// headers, appends, streaming and an optional UTF-8 BOM. WriteMetricReports
// emits one file per metric (to_do_metric_per_sprint.csv and friends, with
// an "_until" suffix when the report was computed under a cutoff).
//
// WorkbookWriter: Excel export of the same reports, one sheet per metric
// plus optional variance and summary sheets.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(afero.NewOsFs(), "reports", logger)
//	paths, err := w.WriteMetricReports("", reports)
//
//	wb := exporter.NewWorkbookWriter(afero.NewOsFs(), logger)
//	err = wb.Save("reports/metrics.xlsx", exporter.Workbook{Metrics: reports})
package exporter
