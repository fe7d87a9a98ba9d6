package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
)

func TestProcessedPath(t *testing.T) {
	assert.Equal(t, "/in/tasks_processed.csv", ProcessedPath("/in/tasks.csv"))
	assert.Equal(t, "tasks_processed.csv", ProcessedPath("tasks.csv"))
	assert.Equal(t, "/in/x.y_processed.csv", ProcessedPath("/in/x.y.CSV"))
}

func TestDedupeReader(t *testing.T) {
	input := "Выгрузка задач;;\n" +
		"entity_id;status;note\n" +
		"1;Создано;<empty>\n" +
		"2;;\"a, b\"\n" +
		"1;Создано;<empty>\n" +
		"1;Создано;\n"

	var out bytes.Buffer
	outcome, err := DedupeReader("tasks.csv", strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, "tasks.csv", outcome.Source)
	assert.Equal(t, 1, outcome.Duplicates)
	assert.Equal(t, 3, outcome.Rows)
	assert.Equal(t, "entity_id,status,note\n"+
		"1,Создано,<empty>\n"+
		"2,,\"a, b\"\n"+
		"1,Создано,\n", out.String())
}

func TestDedupeReaderBareQuotes(t *testing.T) {
	input := "banner\n" +
		"entity_id;note\n" +
		"1;say \"hi\"\n" +
		"1;say \"hi\"\n"

	var out bytes.Buffer
	outcome, err := DedupeReader("notes.csv", strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Duplicates)
	assert.Equal(t, 1, outcome.Rows)
	assert.Equal(t, "entity_id,note\n1,\"say \"\"hi\"\"\"\n", out.String())
}

func TestDedupeReaderSkipped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"banner only", "banner\n"},
		{"banner and header", "banner\nentity_id;status\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := DedupeReader("x.csv", strings.NewReader(tt.input), &out)
			require.Error(t, err)
			assert.True(t, IsSkipped(err))
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFormat))
			assert.Zero(t, out.Len())
		})
	}
}

func TestDedupeReaderMalformedIsNotSkipped(t *testing.T) {
	_, err := DedupeReader("x.csv", strings.NewReader("banner\na;b\n1;2;3\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.False(t, IsSkipped(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}

func TestDedupeFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/sprints.csv", "banner\nsprint_name;entity_ids\nS1;{1,2}\nS1;{1,2}\nS2;{3}\n")

	outcome, err := DedupeFile(fs, "/in/sprints.csv")
	require.NoError(t, err)
	assert.Equal(t, "/in/sprints_processed.csv", outcome.Output)
	assert.Equal(t, 1, outcome.Duplicates)

	data, err := afero.ReadFile(fs, outcome.Output)
	require.NoError(t, err)
	assert.Equal(t, "sprint_name,entity_ids\nS1,\"{1,2}\"\nS2,{3}\n", string(data))
}

func TestDedupeFileTo(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/tasks.csv", "banner\nentity_id;status\n1;done\n1;done\n")

	outcome, err := DedupeFileTo(fs, "/in/tasks.csv", "/out/clean/tasks_processed.csv")
	require.NoError(t, err)
	assert.Equal(t, "/out/clean/tasks_processed.csv", outcome.Output)
	assert.Equal(t, 1, outcome.Rows)

	data, err := afero.ReadFile(fs, outcome.Output)
	require.NoError(t, err)
	assert.Equal(t, "entity_id,status\n1,done\n", string(data))

	exists, err := afero.Exists(fs, "/in/tasks_processed.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDedupeFileSkippedLeavesNoOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/empty.csv", "banner\nentity_id;status\n")

	_, err := DedupeFile(fs, "/in/empty.csv")
	require.Error(t, err)
	assert.True(t, IsSkipped(err))

	exists, err := afero.Exists(fs, "/in/empty_processed.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDedupeFileMissing(t *testing.T) {
	_, err := DedupeFile(afero.NewMemMapFs(), "/nope.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}
