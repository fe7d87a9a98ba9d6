package dataprocessing

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
)

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(afero.NewMemMapFs(), testLogger(), DefaultLoadOptions())

	input := "Report \"tasks\"; generated 2024-03-01\n" +
		"\ufeffentity_id; status ;estimation\n" +
		"10;Создано;3600\n" +
		"20;<empty>;\n" +
		"\n" +
		"30;\"В работе; ещё\";7200\n"

	tbl, err := loader.Load(TableTasks, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"entity_id", "status", "estimation"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, Row{Text("10"), Text("Создано"), Text("3600")}, tbl.Rows[0])
	assert.Equal(t, Row{Text("20"), Null, Null}, tbl.Rows[1])
	assert.Equal(t, Text("В работе; ещё"), tbl.Rows[2][1])
}

func TestLoaderBareQuotes(t *testing.T) {
	loader := NewLoader(nil, testLogger(), DefaultLoadOptions())

	input := "banner\n" +
		"entity_id;name;status\n" +
		"1;Fix \"login\" page;Создано\n" +
		"2;5\" screen;В работе\n"

	tbl, err := loader.Load(TableTasks, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, Text(`Fix "login" page`), tbl.Rows[0][1])
	assert.Equal(t, Text(`5" screen`), tbl.Rows[1][1])
	assert.Equal(t, Text("В работе"), tbl.Rows[1][2])

	// Field count is still enforced
	_, err = loader.Load(TableTasks, strings.NewReader(input+"3;a \"b\";Создано;extra\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed at line 5")
}

func TestLoaderNullTokens(t *testing.T) {
	loader := NewLoader(nil, testLogger(), DedupeLoadOptions())

	tbl, err := loader.Load("x", strings.NewReader("banner\na;b\n<empty>;\n"))
	require.NoError(t, err)
	assert.Equal(t, Row{Text("<empty>"), Null}, tbl.Rows[0])
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
		cause   error
	}{
		{name: "empty file", input: "", wantMsg: "extract is empty", cause: ErrEmptyExtract},
		{name: "banner only", input: "banner line\n", wantMsg: "has no header line", cause: ErrNoHeader},
		{name: "ragged row", input: "banner\na;b\n1;2\n1;2;3\n", wantMsg: "malformed at line 4"},
	}

	loader := NewLoader(nil, testLogger(), DefaultLoadOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(TableHistory, strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
			assert.Contains(t, err.Error(), tt.wantMsg)
			if tt.cause != nil {
				assert.True(t, errors.Is(err, tt.cause))
			}
		})
	}
}

func TestLoaderLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/tasks.csv", "banner\nentity_id\n1\n")
	loader := NewLoader(fs, testLogger(), DefaultLoadOptions())

	tbl, err := loader.LoadFile(TableTasks, "/data/tasks.csv")
	require.NoError(t, err)
	assert.Equal(t, TableTasks, tbl.Name)
	assert.Equal(t, 1, tbl.Len())

	_, err = loader.LoadFile(TableTasks, "/data/missing.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
	assert.Contains(t, err.Error(), "not found")
}

func TestLoaderLoadTables(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/e.csv", "b\nentity_id;status\n1;Создано\n")
	writeFile(t, fs, "/h.csv", "b\nentity_id;history_date\n1;03/01/24 10:00\n")
	writeFile(t, fs, "/s.csv", "b\nsprint_name;entity_ids\nS1;{1}\n")
	loader := NewLoader(fs, testLogger(), DefaultLoadOptions())

	tables, err := loader.LoadTables(TablePaths{Entities: "/e.csv", History: "/h.csv", Sprints: "/s.csv"})
	require.NoError(t, err)
	assert.Equal(t, TableTasks, tables.Tasks.Name)
	assert.Equal(t, TableHistory, tables.History.Name)
	assert.Equal(t, TableSprints, tables.Sprints.Name)

	_, err = loader.LoadTables(TablePaths{Entities: "/e.csv", History: "/nope.csv", Sprints: "/s.csv"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}
