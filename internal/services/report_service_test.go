package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintpulse/internal/config"
	"sprintpulse/internal/dataprocessing"
	apperrors "sprintpulse/internal/errors"
	"sprintpulse/internal/shared/testutil"
	"sprintpulse/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedExtracts(t *testing.T, fs afero.Fs) dataprocessing.TablePaths {
	t.Helper()
	files := testutil.WriteExtracts(t, fs, "/in")
	return dataprocessing.TablePaths{Entities: files.Entities, History: files.History, Sprints: files.Sprints}
}

func newReportService(t *testing.T) (*ReportService, dataprocessing.TablePaths) {
	t.Helper()
	fs := afero.NewMemMapFs()
	paths := seedExtracts(t, fs)
	return NewReportService(fs, config.Default().Pipeline, nil, testLogger()), paths
}

func cutoff(t *testing.T, s string) *time.Time {
	t.Helper()
	until, err := dataprocessing.ParseCutoff(s)
	require.NoError(t, err)
	return until
}

func TestReportServiceMetrics(t *testing.T) {
	svc, paths := newReportService(t)

	tests := []struct {
		name  string
		until *time.Time
		want  map[domain.MetricKind][]domain.SprintMetric
	}{
		{
			name: "latest status",
			want: map[domain.MetricKind][]domain.SprintMetric{
				domain.MetricToDo:       {{SprintName: "S1", Hours: 2}},
				domain.MetricInProgress: {{SprintName: "S1", Hours: 1}},
				domain.MetricDone:       {{SprintName: "S2", Hours: 1}},
			},
		},
		{
			name:  "cutoff before release closed",
			until: cutoff(t, "2024-03-03"),
			want: map[domain.MetricKind][]domain.SprintMetric{
				domain.MetricToDo:       {{SprintName: "S1", Hours: 2}},
				domain.MetricInProgress: {{SprintName: "S1", Hours: 1}, {SprintName: "S2", Hours: 1}},
				domain.MetricDone:       {},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Metrics(context.Background(), paths, nil, tt.until)
			require.NoError(t, err)
			require.Len(t, result.Reports, 3)

			for _, report := range result.Reports {
				want := tt.want[report.Kind]
				if len(want) == 0 {
					assert.Empty(t, report.Rows, report.Kind)
					continue
				}
				assert.Equal(t, want, report.Rows, report.Kind)
			}
		})
	}
}

func TestReportServiceMetricsCleaningReport(t *testing.T) {
	svc, paths := newReportService(t)

	result, err := svc.Metrics(context.Background(), paths, []domain.MetricKind{domain.MetricDone}, nil)
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, domain.MetricDone, result.Reports[0].Kind)

	require.Len(t, result.Cleaning, 3)
	assert.Equal(t, dataprocessing.TableTasks, result.Cleaning[0].Table)
	assert.Equal(t, 4, result.Cleaning[0].Rows)
	assert.Equal(t, 1, result.Cleaning[0].Duplicates)
	assert.Equal(t, 3, result.Cleaning[0].Remaining)
}

func TestReportServiceMissingExtract(t *testing.T) {
	svc, paths := newReportService(t)
	paths.History = "/in/missing.csv"

	_, err := svc.Metrics(context.Background(), paths, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}

func TestReportServiceSummary(t *testing.T) {
	svc, paths := newReportService(t)

	got, err := svc.Summary(context.Background(), paths, "S1", nil)
	require.NoError(t, err)
	assert.Equal(t, "S1", got.SprintName)
	assert.Equal(t, 2, got.TasksCount)
	assert.Equal(t, 3.0, got.TotalEstimateHours)
	assert.Equal(t, 3.0, got.SpentHours)
	assert.Equal(t, 1, got.ToDoCount)
	assert.Equal(t, 1, got.InProgressCount)

	_, err = svc.Summary(context.Background(), paths, "S9", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = svc.Summary(context.Background(), paths, "", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestReportServiceVariance(t *testing.T) {
	svc, paths := newReportService(t)
	pct := func(f float64) *float64 { return &f }

	tests := []struct {
		name string
		req  VarianceRequest
		want []domain.AssigneeVariance
	}{
		{
			name: "by sprint",
			req:  VarianceRequest{Entities: paths.Entities, Sprints: paths.Sprints, Sprint: "S1"},
			want: []domain.AssigneeVariance{
				{Assignee: "alice", Estimation: 2, Spent: 1, Stat: 1, Percent: pct(-50), Category: -60},
				{Assignee: "bob", Estimation: 1, Spent: 2, Stat: -1, Percent: pct(100), Category: 100},
			},
		},
		{
			name: "by task ids",
			req:  VarianceRequest{Entities: paths.Entities, TaskIDs: []int64{1, 3}},
			want: []domain.AssigneeVariance{
				{Assignee: "alice", Estimation: 3, Spent: 2, Stat: 1, Percent: pct(-33), Category: -60},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Variance(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportServiceVarianceErrors(t *testing.T) {
	svc, paths := newReportService(t)

	_, err := svc.Variance(context.Background(), VarianceRequest{Entities: paths.Entities, Sprints: paths.Sprints})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = svc.Variance(context.Background(), VarianceRequest{Entities: paths.Entities, Sprints: paths.Sprints, Sprint: "S9"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestRulesFromConfig(t *testing.T) {
	cfg := config.PipelineConfig{DoneStatuses: []string{"Done"}}
	rules := RulesFromConfig(cfg)

	assert.Equal(t, []string{"Done"}, rules.Done)
	assert.Equal(t, dataprocessing.DefaultStatusRules().ToDo, rules.ToDo)
	assert.Equal(t, dataprocessing.DefaultRecordOptions(), RecordOptionsFromConfig(config.PipelineConfig{}))
}
