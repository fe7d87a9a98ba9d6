package files

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type zipEntry struct {
	name, body string
}

func buildZip(t *testing.T, fs afero.Fs, path string, entries ...zipEntry) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func readZip(t *testing.T, fs afero.Fs, path string) map[string]string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(body)
	}
	return out
}

func assertNoWorkspaces(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), WorkspacePrefix)
	}
}

func TestProcessZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tmp", 0755))
	buildZip(t, fs, "/in/upload.zip",
		zipEntry{"tasks.csv", "banner\nentity_id;status\n1;Создано\n1;Создано\n2;<empty>\n"},
		zipEntry{"nested/history.csv", "banner\nentity_id;history_date\n1;03/01/24 10:00\n"},
		zipEntry{"empty.csv", "banner\nentity_id;status\n"},
		zipEntry{"broken.csv", "banner\na;b\n1;2;3\n"},
		zipEntry{"readme.txt", "ignored"},
	)

	var (
		mu      sync.Mutex
		results []FileResult
	)
	counts, err := ProcessZip(context.Background(), fs, "/in/upload.zip", "/out/processed_upload.zip", ZipOptions{
		TempDir: "/tmp",
		Workers: 2,
		Logger:  testLogger(),
		OnFile: func(r FileResult) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tasks.csv": 1, "nested/history.csv": 0}, counts)

	got := readZip(t, fs, "/out/processed_upload.zip")
	assert.Equal(t, map[string]string{
		"processed_tasks.csv":          "entity_id,status\n1,Создано\n2,<empty>\n",
		"nested/processed_history.csv": "entity_id,history_date\n1,03/01/24 10:00\n",
	}, got)

	require.Len(t, results, 4)
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	assert.Error(t, results[0].Err, "broken.csv")
	assert.False(t, results[0].Skipped())
	assert.True(t, results[1].Skipped(), "empty.csv")
	assert.NoError(t, results[2].Err)
	assert.NoError(t, results[3].Err)

	assertNoWorkspaces(t, fs, "/tmp")
}

func TestProcessZipNoUsableCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tmp", 0755))
	buildZip(t, fs, "/in/upload.zip",
		zipEntry{"empty.csv", "banner\nentity_id\n"},
		zipEntry{"notes.txt", "x"},
	)

	_, err := ProcessZip(context.Background(), fs, "/in/upload.zip", "/out/o.zip", ZipOptions{TempDir: "/tmp", Logger: testLogger()})
	require.ErrorIs(t, err, ErrNoUsableCSV)

	exists, err := afero.Exists(fs, "/out/o.zip")
	require.NoError(t, err)
	assert.False(t, exists)
	assertNoWorkspaces(t, fs, "/tmp")
}

func TestProcessZipNotAZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/upload.zip", []byte("definitely not a zip"), 0644))

	_, err := ProcessZip(context.Background(), fs, "/in/upload.zip", "/out/o.zip", ZipOptions{TempDir: "/tmp", Logger: testLogger()})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFormat))
	assert.Contains(t, err.Error(), "not a valid ZIP archive")
}

func TestProcessZipRejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.csv", "a/../../evil.csv"} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/tmp", 0755))
			buildZip(t, fs, "/in/upload.zip",
				zipEntry{"ok.csv", "banner\na\n1\n"},
				zipEntry{name, "banner\na\n1\n"},
			)

			_, err := ProcessZip(context.Background(), fs, "/in/upload.zip", "/out/o.zip", ZipOptions{TempDir: "/tmp", Logger: testLogger()})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFormat))

			exists, err := afero.Exists(fs, "/evil.csv")
			require.NoError(t, err)
			assert.False(t, exists)
			assertNoWorkspaces(t, fs, "/tmp")
		})
	}
}

func TestProcessZipCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tmp", 0755))
	buildZip(t, fs, "/in/upload.zip", zipEntry{"a.csv", "banner\na\n1\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessZip(ctx, fs, "/in/upload.zip", "/out/o.zip", ZipOptions{TempDir: "/tmp", Logger: testLogger()})
	require.ErrorIs(t, err, context.Canceled)
	assertNoWorkspaces(t, fs, "/tmp")
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a.csv", want: "a.csv"},
		{in: "dir/./a.csv", want: "dir/a.csv"},
		{in: `dir\a.csv`, want: "dir/a.csv"},
		{in: "/abs.csv", wantErr: true},
		{in: "../up.csv", wantErr: true},
	}
	for _, tt := range tests {
		got, err := entryName(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
