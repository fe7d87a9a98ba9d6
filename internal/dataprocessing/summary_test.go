package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

func TestSummarizeSprint(t *testing.T) {
	started := task(1, "Создано", "", 3600)
	started.Spent = fptr(1800)
	shared := task(2, "В работе", "", 7200)

	merged := []domain.MergedRow{
		row("S1", started, nil),
		row("S1", shared, nil),
		row("S1", task(3, "Закрыто", "", 3600), nil),
		row("S1", task(4, "Закрыто", "Дубликат", 10800), nil),
		row("S1", task(5, "Отложен", "", 3600), nil),
		row("S2", shared, nil),
	}

	got, err := SummarizeSprint(merged, "S1", nil, DefaultStatusRules())
	require.NoError(t, err)
	assert.Equal(t, domain.SprintSummary{
		SprintName:         "S1",
		TasksCount:         5,
		TotalEstimateHours: 8,
		SpentHours:         0.5,
		ToDoHours:          1,
		InProgressHours:    2,
		DoneHours:          1,
		ToDoCount:          1,
		InProgressCount:    1,
		DoneCount:          1,
		RemovedCount:       1,
		BackloggedCount:    1,
	}, got)

	s2, err := SummarizeSprint(merged, "S2", nil, DefaultStatusRules())
	require.NoError(t, err)
	assert.Equal(t, 1, s2.TasksCount)
	assert.Equal(t, 2.0, s2.InProgressHours)
}

func TestSummarizeSprintCutoff(t *testing.T) {
	tk := task(1, "Создано", "", 3600)
	merged := []domain.MergedRow{
		row("S1", tk, event(1, "2024-03-01 10:00", 1, "Создано")),
		row("S1", tk, event(1, "2024-03-04 10:00", 2, "Закрыто")),
	}

	got, err := SummarizeSprint(merged, "S1", mustCutoff(t, "2024-03-02"), DefaultStatusRules())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", got.Until)
	assert.Equal(t, 1, got.ToDoCount)
	assert.Equal(t, 0, got.DoneCount)
}

func TestSummarizeSprintUnknown(t *testing.T) {
	merged := []domain.MergedRow{row("S1", task(1, "Создано", "", 3600), nil)}

	for _, name := range []string{"S9", ""} {
		_, err := SummarizeSprint(merged, name, nil, DefaultStatusRules())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	}
}
