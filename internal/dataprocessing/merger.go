package dataprocessing

import (
	"sprintpulse/pkg/contracts/domain"
)

// ExpandMembership emits one link per (sprint, member id). Ids come out of
// ParseEntityIDs already sorted and unique.
func ExpandMembership(sprints []domain.Sprint) []domain.SprintTaskLink {
	n := 0
	for _, s := range sprints {
		n += len(s.EntityIDs)
	}

	links := make([]domain.SprintTaskLink, 0, n)
	for _, s := range sprints {
		for _, id := range s.EntityIDs {
			links = append(links, domain.SprintTaskLink{SprintName: s.Name, TaskID: id})
		}
	}
	return links
}

// Merge left-joins tasks onto the sprint links and history events onto the
// result. Every link survives; a link without a task carries a nil Task, a
// task without history yields one row with a nil History, and a task with N
// events yields N rows. Duplicate task ids multiply rows as a relational
// join would.
func Merge(ds *Dataset) []domain.MergedRow {
	tasksByID := make(map[int64][]*domain.Task, len(ds.Tasks))
	for i := range ds.Tasks {
		t := &ds.Tasks[i]
		tasksByID[t.EntityID] = append(tasksByID[t.EntityID], t)
	}

	historyByID := make(map[int64][]*domain.HistoryEvent, len(ds.History))
	for i := range ds.History {
		ev := &ds.History[i]
		historyByID[ev.EntityID] = append(historyByID[ev.EntityID], ev)
	}

	links := ExpandMembership(ds.Sprints)
	rows := make([]domain.MergedRow, 0, len(links))

	for _, link := range links {
		tasks := tasksByID[link.TaskID]
		if len(tasks) == 0 {
			tasks = []*domain.Task{nil}
		}
		events := historyByID[link.TaskID]
		if len(events) == 0 {
			events = []*domain.HistoryEvent{nil}
		}

		for _, task := range tasks {
			for _, ev := range events {
				rows = append(rows, domain.MergedRow{
					SprintName: link.SprintName,
					TaskID:     link.TaskID,
					Task:       task,
					History:    ev,
				})
			}
		}
	}
	return rows
}

// MergeTables builds typed records from cleaned tables and merges them.
// A malformed entity_ids literal is a ParseError.
func MergeTables(tables *Tables, opts RecordOptions) ([]domain.MergedRow, error) {
	ds, err := BuildDataset(tables, opts)
	if err != nil {
		return nil, err
	}
	return Merge(ds), nil
}
