package dataprocessing

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"sprintpulse/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func fptr(f float64) *float64 { return &f }

func tptr(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func task(id int64, status, resolution string, estimation float64) *domain.Task {
	return &domain.Task{EntityID: id, Status: status, Resolution: resolution, Estimation: fptr(estimation)}
}

func event(id int64, date string, version float64, status string) *domain.HistoryEvent {
	ev := &domain.HistoryEvent{EntityID: id, Version: fptr(version), Status: status, HasStatus: status != ""}
	if date != "" {
		ev.Date = tptr(date)
	}
	return ev
}

func row(sprint string, t *domain.Task, ev *domain.HistoryEvent) domain.MergedRow {
	r := domain.MergedRow{SprintName: sprint, Task: t, History: ev}
	switch {
	case t != nil:
		r.TaskID = t.EntityID
	case ev != nil:
		r.TaskID = ev.EntityID
	}
	return r
}

func table(name string, columns []string, rows ...[]string) *Table {
	t := NewTable(name, columns...)
	for _, values := range rows {
		r := make(Row, len(values))
		for i, v := range values {
			if v == "" {
				r[i] = Null
			} else {
				r[i] = Text(v)
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}
