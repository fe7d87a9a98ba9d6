package exporter

import (
	"path/filepath"

	"sprintpulse/pkg/contracts/domain"
)

// SprintNameHeader is the first column of every metric file
const SprintNameHeader = "Sprint Name"

// VarianceHeaders are the columns of the variance table
var VarianceHeaders = []string{"assignee", "estimation", "spent", "stat", "procent", "category"}

// SummaryHeaders are the columns of the sprint summary table
var SummaryHeaders = []string{
	"sprint", "until", "tasks_count", "total_estimate", "real_estimate",
	"to_do_hours", "in_progress_hours", "done_hours",
	"to_do_tasks_count", "in_progress_tasks_count", "done_tasks_count",
	"removed_tasks_count", "backlogged_tasks_count",
}

// MetricFileName returns the CSV file name of a report. Reports computed
// under a cutoff get the "_until" variant.
func MetricFileName(report domain.MetricReport) string {
	if report.Until != "" {
		return report.Kind.FileStem() + "_until.csv"
	}
	return report.Kind.FileStem() + ".csv"
}

// MetricHeaders returns the header row of a metric report
func MetricHeaders(kind domain.MetricKind) []string {
	return []string{SprintNameHeader, kind.ColumnName()}
}

// MetricRecords converts metric rows into CSV records
func MetricRecords(rows []domain.SprintMetric) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.SprintName, formatHours(r.Hours)})
	}
	return records
}

// VarianceRecords converts assignee variances into CSV records
func VarianceRecords(rows []domain.AssigneeVariance) [][]string {
	records := make([][]string, 0, len(rows))
	for _, v := range rows {
		records = append(records, []string{
			v.Assignee,
			formatInt(v.Estimation),
			formatInt(v.Spent),
			formatInt(v.Stat),
			formatOptionalFloat(v.Percent),
			v.Category.String(),
		})
	}
	return records
}

// SummaryRecord converts a sprint summary into a single CSV record
func SummaryRecord(s domain.SprintSummary) []string {
	return []string{
		s.SprintName,
		s.Until,
		formatInt(int64(s.TasksCount)),
		formatHours(s.TotalEstimateHours),
		formatHours(s.SpentHours),
		formatHours(s.ToDoHours),
		formatHours(s.InProgressHours),
		formatHours(s.DoneHours),
		formatInt(int64(s.ToDoCount)),
		formatInt(int64(s.InProgressCount)),
		formatInt(int64(s.DoneCount)),
		formatInt(int64(s.RemovedCount)),
		formatInt(int64(s.BackloggedCount)),
	}
}

// WriteMetricReports writes one CSV per report into dir and returns the
// written paths in report order
func (w *CSVWriter) WriteMetricReports(dir string, reports []domain.MetricReport) ([]string, error) {
	paths := make([]string, 0, len(reports))
	for _, report := range reports {
		path, err := w.WriteSimpleCSV(filepath.Join(dir, MetricFileName(report)),
			MetricHeaders(report.Kind), MetricRecords(report.Rows))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteVariance writes the variance table to filePath
func (w *CSVWriter) WriteVariance(filePath string, rows []domain.AssigneeVariance) (string, error) {
	return w.WriteSimpleCSV(filePath, VarianceHeaders, VarianceRecords(rows))
}
