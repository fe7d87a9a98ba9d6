package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MetricKind selects one of the per-sprint workload metrics
type MetricKind string

const (
	MetricToDo       MetricKind = "todo"
	MetricInProgress MetricKind = "in-progress"
	MetricDone       MetricKind = "done"
)

// AllMetricKinds lists the metrics in report order
var AllMetricKinds = []MetricKind{MetricToDo, MetricInProgress, MetricDone}

// ParseMetricKind converts a user supplied name to a MetricKind
func ParseMetricKind(s string) (MetricKind, error) {
	switch MetricKind(s) {
	case MetricToDo, MetricInProgress, MetricDone:
		return MetricKind(s), nil
	}
	return "", fmt.Errorf("unknown metric kind %q", s)
}

// Title returns the human readable metric name used in report headers
func (k MetricKind) Title() string {
	switch k {
	case MetricToDo:
		return "To Do"
	case MetricInProgress:
		return "In Progress"
	case MetricDone:
		return "Done"
	}
	return string(k)
}

// ColumnName returns the value column header, e.g. "Done Metric (hours)"
func (k MetricKind) ColumnName() string {
	return k.Title() + " Metric (hours)"
}

// FileStem returns the base name used for metric CSV files
func (k MetricKind) FileStem() string {
	switch k {
	case MetricToDo:
		return "to_do_metric_per_sprint"
	case MetricInProgress:
		return "in_progress_metric_per_sprint"
	case MetricDone:
		return "done_metric_per_sprint"
	}
	return string(k) + "_metric_per_sprint"
}

// SprintMetric is one output row of a workload metric
type SprintMetric struct {
	SprintName string  `json:"sprint_name"`
	Hours      float64 `json:"hours"`
}

// MetricReport bundles the result of one metric computation
type MetricReport struct {
	Kind  MetricKind     `json:"kind"`
	Until string         `json:"until,omitempty"`
	Rows  []SprintMetric `json:"rows"`
}

// VarianceCategory buckets the relative difference between estimated and spent effort
type VarianceCategory int

const (
	// CategoryNoVariance marks assignees whose stat equals the estimation (nothing spent)
	CategoryNoVariance VarianceCategory = -1
	// CategoryUndefined marks a zero estimation, for which no percentage exists
	CategoryUndefined VarianceCategory = -1 << 31
)

// MarshalJSON renders the undefined category as null
func (c VarianceCategory) MarshalJSON() ([]byte, error) {
	if c == CategoryUndefined {
		return []byte("null"), nil
	}
	return json.Marshal(int(c))
}

// String renders the category for CSV and terminal output
func (c VarianceCategory) String() string {
	if c == CategoryUndefined {
		return "n/a"
	}
	return strconv.Itoa(int(c))
}

// AssigneeVariance compares estimated and spent hours for one assignee
type AssigneeVariance struct {
	Assignee   string           `json:"assignee"`
	Estimation int64            `json:"estimation"` // hours
	Spent      int64            `json:"spent"`      // hours
	Stat       int64            `json:"stat"`
	Percent    *float64         `json:"procent"`
	Category   VarianceCategory `json:"category"`
}

// SprintSummary is the dashboard view of one sprint as of a cutoff
type SprintSummary struct {
	SprintName         string  `json:"sprint"`
	Until              string  `json:"until,omitempty"`
	TasksCount         int     `json:"tasks_count"`
	TotalEstimateHours float64 `json:"total_estimate"`
	SpentHours         float64 `json:"real_estimate"`
	ToDoHours          float64 `json:"to_do_hours"`
	InProgressHours    float64 `json:"in_progress_hours"`
	DoneHours          float64 `json:"done_hours"`
	ToDoCount          int     `json:"to_do_tasks_count"`
	InProgressCount    int     `json:"in_progress_tasks_count"`
	DoneCount          int     `json:"done_tasks_count"`
	RemovedCount       int     `json:"removed_tasks_count"`
	BackloggedCount    int     `json:"backlogged_tasks_count"`
}

// DedupeOutcome reports the result of deduplicating one CSV file
type DedupeOutcome struct {
	Source     string `json:"source"`
	Output     string `json:"output"`
	Rows       int    `json:"rows"`
	Duplicates int    `json:"duplicates"`
}
