package dataprocessing

import (
	"fmt"
	"time"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

// SummarizeSprint builds the dashboard summary of one sprint as of until.
// Latest statuses are resolved over the sprint's own rows, so a task shared
// with another sprint is counted in both.
func SummarizeSprint(merged []domain.MergedRow, sprintName string, until *time.Time, rules StatusRules) (domain.SprintSummary, error) {
	var rows []domain.MergedRow
	for _, r := range merged {
		if r.SprintName == sprintName {
			rows = append(rows, r)
		}
	}
	if sprintName == "" || len(rows) == 0 {
		return domain.SprintSummary{}, apperrors.NewNotFoundError(fmt.Sprintf("sprint %q", sprintName))
	}

	summary := domain.SprintSummary{
		SprintName: sprintName,
		Until:      FormatCutoff(until),
	}

	var total, spent, todo, inProgress, done float64
	for _, r := range ResolveLatestStatus(rows, until) {
		est := r.EstimationSeconds()
		summary.TasksCount++
		total += est
		spent += r.SpentSeconds()

		switch {
		case rules.Matches(domain.MetricToDo, r):
			todo += est
			summary.ToDoCount++
		case rules.Matches(domain.MetricInProgress, r):
			inProgress += est
			summary.InProgressCount++
		case rules.Matches(domain.MetricDone, r):
			done += est
			summary.DoneCount++
		case rules.Removed(r):
			summary.RemovedCount++
		}
		if rules.Backlogged(r) {
			summary.BackloggedCount++
		}
	}

	summary.TotalEstimateHours = total / secondsPerHour
	summary.SpentHours = spent / secondsPerHour
	summary.ToDoHours = todo / secondsPerHour
	summary.InProgressHours = inProgress / secondsPerHour
	summary.DoneHours = done / secondsPerHour
	return summary, nil
}
