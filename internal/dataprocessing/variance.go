package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

// SprintMembers returns the member task ids of the named sprint. Several
// rows with the same name are united.
func SprintMembers(sprints []domain.Sprint, name string) ([]int64, error) {
	found := false
	seen := make(map[int64]struct{})
	var ids []int64
	for _, s := range sprints {
		if s.Name != name {
			continue
		}
		found = true
		for _, id := range s.EntityIDs {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if !found {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sprint %q", name))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Categorize places a variance on the bucket ladder. est and stat are whole
// hours, percent is (spent-est)/est*100. An assignee with nothing spent
// (est == stat) gets CategoryNoVariance.
func Categorize(est, stat int64, percent float64) domain.VarianceCategory {
	if est == stat {
		return domain.CategoryNoVariance
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return domain.CategoryUndefined
	}

	abs := math.Abs(percent)
	var bucket domain.VarianceCategory
	switch {
	case abs == 0:
		return 0
	case abs <= 10:
		bucket = 10
	case abs <= 20:
		bucket = 20
	case abs <= 60:
		bucket = 60
	default:
		bucket = 100
	}
	if percent < 0 {
		return -bucket
	}
	return bucket
}

// ComputeVariance compares estimated and spent hours per assignee over the
// tasks whose id is in taskIDs. Tasks without an assignee are ignored, and
// so are assignees whose estimation sum is not positive. Hours are rounded
// half to even. When the rounded estimation is zero but time was spent the
// percentage is undefined: Percent is nil and Category is CategoryUndefined.
func ComputeVariance(tasks []domain.Task, taskIDs []int64) []domain.AssigneeVariance {
	subset := make(map[int64]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		subset[id] = struct{}{}
	}

	type totals struct{ est, spent float64 }
	byAssignee := make(map[string]*totals)
	for _, t := range tasks {
		if _, ok := subset[t.EntityID]; !ok || t.Assignee == "" {
			continue
		}
		acc, ok := byAssignee[t.Assignee]
		if !ok {
			acc = &totals{}
			byAssignee[t.Assignee] = acc
		}
		if t.Estimation != nil {
			acc.est += *t.Estimation
		}
		if t.Spent != nil {
			acc.spent += *t.Spent
		}
	}

	out := make([]domain.AssigneeVariance, 0, len(byAssignee))
	for name, acc := range byAssignee {
		if acc.est <= 0 {
			continue
		}

		est := int64(math.RoundToEven(acc.est / secondsPerHour))
		spent := int64(math.RoundToEven(acc.spent / secondsPerHour))
		v := domain.AssigneeVariance{
			Assignee:   name,
			Estimation: est,
			Spent:      spent,
			Stat:       est - spent,
		}

		switch {
		case est == v.Stat:
			v.Category = domain.CategoryNoVariance
			if est != 0 {
				p := math.RoundToEven(float64(spent-est) / float64(est) * 100)
				v.Percent = &p
			}
		case est == 0:
			v.Category = domain.CategoryUndefined
		default:
			p := math.RoundToEven(float64(spent-est) / float64(est) * 100)
			v.Percent = &p
			v.Category = Categorize(est, v.Stat, float64(spent-est)/float64(est)*100)
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Assignee < out[j].Assignee })
	return out
}
