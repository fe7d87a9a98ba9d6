package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

const secondsPerHour = 3600

// CutoffLayout is the accepted form of a cutoff date
const CutoffLayout = "2006-01-02"

// StatusRules maps tracker statuses and resolutions onto metric buckets
type StatusRules struct {
	ToDo                []string
	InProgress          []string
	Done                []string
	ExcludedResolutions []string
	Backlog             []string
}

// DefaultStatusRules returns the workflow of the tracker exports
func DefaultStatusRules() StatusRules {
	return StatusRules{
		ToDo:                []string{"Создано"},
		InProgress:          []string{"В работе"},
		Done:                []string{"Закрыто", "Выполнено"},
		ExcludedResolutions: []string{"Отклонено", "Отменено инициатором", "Дубликат"},
		Backlog:             []string{"Отложен"},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Matches reports whether a resolved row counts toward the metric
func (r StatusRules) Matches(kind domain.MetricKind, row domain.MergedRow) bool {
	status := row.Status()
	switch kind {
	case domain.MetricToDo:
		return contains(r.ToDo, status)
	case domain.MetricInProgress:
		return contains(r.InProgress, status)
	case domain.MetricDone:
		return contains(r.Done, status) && !contains(r.ExcludedResolutions, row.Resolution())
	}
	return false
}

// Removed reports a done-status row whose resolution takes it out of Done
func (r StatusRules) Removed(row domain.MergedRow) bool {
	return contains(r.Done, row.Status()) && contains(r.ExcludedResolutions, row.Resolution())
}

// Backlogged reports a row parked in a backlog status
func (r StatusRules) Backlogged(row domain.MergedRow) bool {
	return contains(r.Backlog, row.Status())
}

// ParseCutoff parses a YYYY-MM-DD cutoff as midnight UTC of that day.
// An empty value means no cutoff.
func ParseCutoff(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(CutoffLayout, value)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("cutoff %q is not a YYYY-MM-DD date", value), err)
	}
	return &t, nil
}

// FormatCutoff renders a cutoff the way ParseCutoff accepts it
func FormatCutoff(until *time.Time) string {
	if until == nil {
		return ""
	}
	return until.Format(CutoffLayout)
}

// compareTime orders timestamps ascending with nil last
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// compareFloat orders numbers ascending with nil last
func compareFloat(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// compareRows is the history order: (history_date, history_version)
// ascending with nulls last. Sprint name, status and estimation only break
// exact ties so the outcome does not depend on input order.
func compareRows(a, b domain.MergedRow) int {
	if c := compareTime(a.HistoryDate(), b.HistoryDate()); c != 0 {
		return c
	}
	if c := compareFloat(a.HistoryVersion(), b.HistoryVersion()); c != 0 {
		return c
	}
	if c := strings.Compare(a.SprintName, b.SprintName); c != 0 {
		return c
	}
	if c := strings.Compare(a.Status(), b.Status()); c != 0 {
		return c
	}
	ea, eb := a.EstimationSeconds(), b.EstimationSeconds()
	return compareFloat(&ea, &eb)
}

// ResolveLatestStatus returns, per task, the last merged row in history
// order among rows dated on or before until. With a cutoff, rows without a
// history date are dropped. Rows of tasks outside any named sprint are
// discarded after resolution. The result is ordered by task id.
func ResolveLatestStatus(rows []domain.MergedRow, until *time.Time) []domain.MergedRow {
	kept := make([]domain.MergedRow, 0, len(rows))
	for _, r := range rows {
		if until != nil {
			d := r.HistoryDate()
			if d == nil || d.After(*until) {
				continue
			}
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return compareRows(kept[i], kept[j]) < 0
	})

	last := make(map[int64]int, len(kept))
	for i, r := range kept {
		last[r.TaskID] = i
	}

	resolved := make([]domain.MergedRow, 0, len(last))
	for _, i := range last {
		if kept[i].SprintName == "" {
			continue
		}
		resolved = append(resolved, kept[i])
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].TaskID < resolved[j].TaskID
	})
	return resolved
}

// aggregate sums estimation hours per sprint over rows accepted by keep.
// Sprints without a qualifying row are absent.
func aggregate(resolved []domain.MergedRow, keep func(domain.MergedRow) bool) []domain.SprintMetric {
	sums := make(map[string]float64)
	for _, r := range resolved {
		if keep(r) {
			sums[r.SprintName] += r.EstimationSeconds()
		}
	}

	out := make([]domain.SprintMetric, 0, len(sums))
	for name, seconds := range sums {
		out = append(out, domain.SprintMetric{SprintName: name, Hours: seconds / secondsPerHour})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SprintName < out[j].SprintName })
	return out
}

// ComputeMetric returns per-sprint hours of the given metric as of until
func ComputeMetric(kind domain.MetricKind, merged []domain.MergedRow, until *time.Time, rules StatusRules) []domain.SprintMetric {
	resolved := ResolveLatestStatus(merged, until)
	return aggregate(resolved, func(r domain.MergedRow) bool { return rules.Matches(kind, r) })
}

// Calculator computes metric reports with logging
type Calculator struct {
	rules  StatusRules
	logger *slog.Logger
}

// NewCalculator creates a calculator using rules
func NewCalculator(rules StatusRules, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		rules:  rules,
		logger: logger.With(slog.String("component", "calculator")),
	}
}

// Rules returns the status rules in use
func (c *Calculator) Rules() StatusRules {
	return c.rules
}

// Compute returns the report of one metric
func (c *Calculator) Compute(ctx context.Context, kind domain.MetricKind, merged []domain.MergedRow, until *time.Time) domain.MetricReport {
	return c.ComputeKinds(ctx, []domain.MetricKind{kind}, merged, until)[0]
}

// ComputeKinds resolves latest statuses once and reports every requested metric
func (c *Calculator) ComputeKinds(ctx context.Context, kinds []domain.MetricKind, merged []domain.MergedRow, until *time.Time) []domain.MetricReport {
	resolved := ResolveLatestStatus(merged, until)
	c.logger.DebugContext(ctx, "latest statuses resolved",
		slog.Int("merged_rows", len(merged)),
		slog.Int("resolved_tasks", len(resolved)),
		slog.String("until", FormatCutoff(until)))

	reports := make([]domain.MetricReport, 0, len(kinds))
	for _, kind := range kinds {
		kind := kind
		rows := aggregate(resolved, func(r domain.MergedRow) bool { return c.rules.Matches(kind, r) })
		c.logger.InfoContext(ctx, "metric computed",
			slog.String("metric", string(kind)),
			slog.Int("sprints", len(rows)))
		reports = append(reports, domain.MetricReport{
			Kind:  kind,
			Until: FormatCutoff(until),
			Rows:  rows,
		})
	}
	return reports
}
