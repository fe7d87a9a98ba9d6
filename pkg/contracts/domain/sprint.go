package domain

import (
	"time"
)

// Task represents one work item from the entities extract
type Task struct {
	EntityID   int64      `json:"entity_id" validate:"required"`
	Name       string     `json:"name,omitempty"`
	Type       string     `json:"type,omitempty"`
	Status     string     `json:"status,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	Area       string     `json:"area,omitempty"`
	Assignee   string     `json:"assignee,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	Workgroup  string     `json:"workgroup,omitempty"`
	Estimation *float64   `json:"estimation,omitempty"` // seconds
	Spent      *float64   `json:"spent,omitempty"`      // seconds
	CreatedAt  *time.Time `json:"create_date,omitempty"`
	UpdatedAt  *time.Time `json:"update_date,omitempty"`
}

// HistoryEvent is one status-change record of a task
type HistoryEvent struct {
	EntityID  int64      `json:"entity_id"`
	Date      *time.Time `json:"history_date,omitempty"`
	Version   *float64   `json:"history_version,omitempty"`
	Status    string     `json:"status,omitempty"`
	HasStatus bool       `json:"-"`
}

// Sprint is a time-boxed iteration with a fixed task membership
type Sprint struct {
	Name      string     `json:"sprint_name" validate:"required"`
	StartDate *time.Time `json:"sprint_start_date,omitempty"`
	EndDate   *time.Time `json:"sprint_end_date,omitempty"`
	EntityIDs []int64    `json:"entity_ids"`
}

// SprintTaskLink is one (sprint, task) membership pair
type SprintTaskLink struct {
	SprintName string `json:"sprint_name"`
	TaskID     int64  `json:"task_id"`
}

// MergedRow is one (sprint, task, history event) triple.
// Task is nil when the sprint references an unknown task; History is nil
// when the task has no recorded history.
type MergedRow struct {
	SprintName string        `json:"sprint_name"`
	TaskID     int64         `json:"task_id"`
	Task       *Task         `json:"task,omitempty"`
	History    *HistoryEvent `json:"history,omitempty"`
}

// HistoryDate returns the event timestamp or nil
func (r MergedRow) HistoryDate() *time.Time {
	if r.History == nil {
		return nil
	}
	return r.History.Date
}

// HistoryVersion returns the event version or nil
func (r MergedRow) HistoryVersion() *float64 {
	if r.History == nil {
		return nil
	}
	return r.History.Version
}

// Status returns the status the row stands for: the history event's status
// when the event carries one, otherwise the task's own status.
func (r MergedRow) Status() string {
	if r.History != nil && r.History.HasStatus && r.History.Status != "" {
		return r.History.Status
	}
	if r.Task != nil {
		return r.Task.Status
	}
	return ""
}

// Resolution returns the task resolution or an empty string
func (r MergedRow) Resolution() string {
	if r.Task == nil {
		return ""
	}
	return r.Task.Resolution
}

// EstimationSeconds returns the task estimation, treating null as zero
func (r MergedRow) EstimationSeconds() float64 {
	if r.Task == nil || r.Task.Estimation == nil {
		return 0
	}
	return *r.Task.Estimation
}

// SpentSeconds returns the spent effort, treating null as zero
func (r MergedRow) SpentSeconds() float64 {
	if r.Task == nil || r.Task.Spent == nil {
		return 0
	}
	return *r.Task.Spent
}
