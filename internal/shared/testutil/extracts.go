package testutil

import (
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Sample extracts in the raw export format: a banner line, a ';' header and
// ';' rows. Task 3 is duplicated in the tasks extract.
//
// As of 2024-03-03: task 1 is to do (2h estimate), task 2 in progress and
// task 3 in progress until it closes on 2024-03-05. S1 holds tasks 1 and 2,
// S2 holds task 3.
const (
	EntitiesCSV = "Выгрузка задач\n" +
		"entity_id;name;status;resolution;assignee;estimation;spent\n" +
		"1;Login form;Создано;;alice;7200;3600\n" +
		"2;API client;В работе;;bob;3600;7200\n" +
		"3;Release;Закрыто;;alice;3600;3600\n" +
		"3;Release;Закрыто;;alice;3600;3600\n"

	HistoryCSV = "Выгрузка истории\n" +
		"entity_id;history_date;history_version;status\n" +
		"1;03/01/24 10:00;1;Создано\n" +
		"2;03/01/24 10:00;1;Создано\n" +
		"2;03/02/24 10:00;2;В работе\n" +
		"3;03/01/24 10:00;1;В работе\n" +
		"3;03/05/24 10:00;2;Закрыто\n"

	SprintsCSV = "Выгрузка спринтов\n" +
		"sprint_name;entity_ids\n" +
		"S1;{1,2}\n" +
		"S2;{3}\n"
)

// ExtractFiles are the locations written by WriteExtracts
type ExtractFiles struct {
	Entities string
	History  string
	Sprints  string
}

// WriteExtracts writes the sample extracts into dir on fs
func WriteExtracts(t *testing.T, fs afero.Fs, dir string) ExtractFiles {
	t.Helper()
	files := ExtractFiles{
		Entities: path.Join(dir, "entities.csv"),
		History:  path.Join(dir, "history.csv"),
		Sprints:  path.Join(dir, "sprints.csv"),
	}
	require.NoError(t, afero.WriteFile(fs, files.Entities, []byte(EntitiesCSV), 0644))
	require.NoError(t, afero.WriteFile(fs, files.History, []byte(HistoryCSV), 0644))
	require.NoError(t, afero.WriteFile(fs, files.Sprints, []byte(SprintsCSV), 0644))
	return files
}
