package exporter

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sprintpulse/pkg/contracts/domain"
)

func floatPtr(f float64) *float64 { return &f }

func TestMetricFileName(t *testing.T) {
	tests := []struct {
		report domain.MetricReport
		want   string
	}{
		{domain.MetricReport{Kind: domain.MetricToDo}, "to_do_metric_per_sprint.csv"},
		{domain.MetricReport{Kind: domain.MetricInProgress}, "in_progress_metric_per_sprint.csv"},
		{domain.MetricReport{Kind: domain.MetricDone, Until: "2024-03-01"}, "done_metric_per_sprint_until.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MetricFileName(tt.report))
	}
}

func TestWriteMetricReports(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewCSVWriter(fs, "/reports", quietLogger())

	reports := []domain.MetricReport{
		{Kind: domain.MetricToDo, Rows: []domain.SprintMetric{{SprintName: "S1", Hours: 1}}},
		{Kind: domain.MetricInProgress, Rows: []domain.SprintMetric{{SprintName: "S1", Hours: 2.5}}},
		{Kind: domain.MetricDone},
	}

	paths, err := w.WriteMetricReports("", reports)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	assert.Equal(t, "Sprint Name,To Do Metric (hours)\nS1,1.0\n", readFile(t, fs, "/reports/to_do_metric_per_sprint.csv"))
	assert.Equal(t, "Sprint Name,In Progress Metric (hours)\nS1,2.5\n", readFile(t, fs, "/reports/in_progress_metric_per_sprint.csv"))
	assert.Equal(t, "Sprint Name,Done Metric (hours)\n", readFile(t, fs, "/reports/done_metric_per_sprint.csv"))
}

func TestVarianceRecords(t *testing.T) {
	rows := []domain.AssigneeVariance{
		{Assignee: "ann", Estimation: 10, Spent: 12, Stat: -2, Percent: floatPtr(20), Category: 20},
		{Assignee: "bob", Estimation: 0, Spent: 1, Stat: -1, Category: domain.CategoryUndefined},
		{Assignee: "eve", Estimation: 4, Spent: 0, Stat: 4, Percent: floatPtr(-100), Category: domain.CategoryNoVariance},
	}

	got := VarianceRecords(rows)
	assert.Equal(t, [][]string{
		{"ann", "10", "12", "-2", "20", "20"},
		{"bob", "0", "1", "-1", "", "n/a"},
		{"eve", "4", "0", "4", "-100", "-1"},
	}, got)
}

func TestSummaryRecord(t *testing.T) {
	rec := SummaryRecord(domain.SprintSummary{
		SprintName:         "S1",
		TasksCount:         3,
		TotalEstimateHours: 6,
		DoneHours:          1.5,
		DoneCount:          1,
		RemovedCount:       1,
	})
	require.Len(t, rec, len(SummaryHeaders))
	assert.Equal(t, "S1", rec[0])
	assert.Equal(t, "3", rec[2])
	assert.Equal(t, "6.0", rec[3])
	assert.Equal(t, "1.5", rec[7])
	assert.Equal(t, "1", rec[11])
}

func TestWorkbookWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	wb := NewWorkbookWriter(fs, quietLogger())

	book := Workbook{
		Metrics: []domain.MetricReport{
			{Kind: domain.MetricToDo, Rows: []domain.SprintMetric{{SprintName: "S1", Hours: 1}}},
			{Kind: domain.MetricDone, Rows: []domain.SprintMetric{{SprintName: "S2", Hours: 3}}},
		},
		Variance: []domain.AssigneeVariance{
			{Assignee: "ann", Estimation: 10, Spent: 12, Stat: -2, Percent: floatPtr(20), Category: 20},
		},
	}
	require.NoError(t, wb.Save("/out/metrics.xlsx", book))

	data, err := afero.ReadFile(fs, "/out/metrics.xlsx")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"To Do", "Done", "Variance"}, f.GetSheetList())

	rows, err := f.GetRows("To Do")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Sprint Name", "To Do Metric (hours)"}, {"S1", "1.0"}}, rows)

	rows, err = f.GetRows("Variance")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ann", rows[1][0])
}

func TestWorkbookWriterEmptyKeepsDefaultSheet(t *testing.T) {
	wb := NewWorkbookWriter(afero.NewMemMapFs(), quietLogger())

	var buf bytes.Buffer
	require.NoError(t, wb.WriteTo(&buf, Workbook{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}
