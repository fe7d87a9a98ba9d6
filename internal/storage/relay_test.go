package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintpulse/internal/config"
	apperrors "sprintpulse/internal/errors"
	"sprintpulse/internal/files"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore() *MemoryStore {
	store := NewMemoryStore("https://storage.example.com")
	store.Put("sprint-data", "team/upload_01/tasks.csv", []byte("banner\nentity_id;status\n1;Создано\n1;Создано\n2;В работе\n"))
	store.Put("sprint-data", "team/upload_01/empty.csv", []byte("banner\nentity_id;status\n"))
	store.Put("sprint-data", "team/upload_01/readme.md", []byte("notes"))
	store.Put("sprint-data", "team/upload_01/nested/", nil)
	store.Put("sprint-data", "team/upload_01/nested/deep.csv", []byte("banner\na\n1\n"))
	store.Put("sprint-data", "team/other.csv", []byte("banner\na\n1\n"))
	return store
}

func TestRelayProcessFolder(t *testing.T) {
	store := seededStore()
	fs := afero.NewMemMapFs()

	var seen []files.FileResult
	relay := NewRelay(store, fs, RelayOptions{
		TempDir:         "/tmp",
		ProcessedPrefix: "processed",
		Logger:          testLogger(),
		OnFile:          func(r files.FileResult) { seen = append(seen, r) },
	})

	result, err := relay.ProcessFolder(context.Background(), "sprint-data", "team/upload_01")
	require.NoError(t, err)

	require.Len(t, result.URLs, 1)
	assert.True(t, strings.HasPrefix(result.URLs[0], "https://storage.example.com/sprint-data/processed/"))
	assert.True(t, strings.HasSuffix(result.URLs[0], "/tasks_processed.csv"))
	assert.Equal(t, map[string]int{"tasks.csv": 1}, result.Duplicates)
	assert.Equal(t, []string{"empty.csv"}, result.Skipped)
	assert.Len(t, seen, 2)

	var uploaded []string
	for _, name := range store.Names("sprint-data") {
		if strings.HasPrefix(name, "processed/") {
			uploaded = append(uploaded, name)
		}
	}
	require.Len(t, uploaded, 1)
	data, ok := store.Get("sprint-data", uploaded[0])
	require.True(t, ok)
	assert.Equal(t, "entity_id,status\n1,Создано\n2,В работе\n", string(data))
	assert.Equal(t, CSVContentType, store.ContentType("sprint-data", uploaded[0]))

	tmp, err := afero.ReadDir(fs, "/tmp")
	require.NoError(t, err)
	assert.Empty(t, tmp, "workspace removed")
}

func TestRelayTrailingSlashFolder(t *testing.T) {
	relay := NewRelay(seededStore(), afero.NewMemMapFs(), RelayOptions{TempDir: "/tmp", Logger: testLogger()})

	result, err := relay.ProcessFolder(context.Background(), "sprint-data", "/team/upload_01/")
	require.NoError(t, err)
	assert.Len(t, result.URLs, 1)
}

func TestRelayErrors(t *testing.T) {
	relay := NewRelay(nil, afero.NewMemMapFs(), RelayOptions{Logger: testLogger()})
	_, err := relay.ProcessFolder(context.Background(), "b", "f")
	require.ErrorIs(t, err, ErrNotConfigured)

	relay = NewRelay(NewMemoryStore(""), afero.NewMemMapFs(), RelayOptions{TempDir: "/tmp", Logger: testLogger()})
	_, err = relay.ProcessFolder(context.Background(), "missing-bucket", "f")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestRelayEmptyFolder(t *testing.T) {
	relay := NewRelay(seededStore(), afero.NewMemMapFs(), RelayOptions{TempDir: "/tmp", Logger: testLogger()})

	result, err := relay.ProcessFolder(context.Background(), "sprint-data", "nobody")
	require.NoError(t, err)
	assert.Empty(t, result.URLs)
	assert.NotNil(t, result.URLs)
}

func TestRelayAllSkipped(t *testing.T) {
	store := NewMemoryStore("https://storage.example.com")
	store.Put("sprint-data", "team/empty.csv", []byte("banner\nentity_id;status\n"))
	store.Put("sprint-data", "team/blank.csv", []byte(""))

	relay := NewRelay(store, afero.NewMemMapFs(), RelayOptions{TempDir: "/tmp", Logger: testLogger()})
	result, err := relay.ProcessFolder(context.Background(), "sprint-data", "team")
	require.ErrorIs(t, err, ErrNoUsableCSV)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFormat))

	for _, name := range store.Names("sprint-data") {
		assert.False(t, strings.HasPrefix(name, "processed/"), name)
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/processed/x/a%20b.csv",
		publicURL("https://storage.googleapis.com", "b", "processed/x/a b.csv"))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(context.Background(), config.StorageConfig{Provider: "none"}, testLogger())
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewStore(context.Background(), config.StorageConfig{Provider: "memory"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(context.Background(), config.StorageConfig{Provider: "s3"}, testLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
