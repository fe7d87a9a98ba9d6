package files

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace(t *testing.T) {
	fs := afero.NewMemMapFs()

	ws, err := NewWorkspace(fs, "/tmp", testLogger())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ws.Root(), "/tmp/"+WorkspacePrefix))
	assert.Len(t, ws.ID(), 36)

	other, err := NewWorkspace(fs, "/tmp", testLogger())
	require.NoError(t, err)
	assert.NotEqual(t, ws.Root(), other.Root())

	p, err := ws.WriteFrom("a/b.csv", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, ws.Path("a", "b.csv"), p)

	data, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	ws.Remove()
	exists, err := afero.DirExists(fs, ws.Root())
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.DirExists(fs, other.Root())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiscoveryFindCSVFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		"/data/b.csv",
		"/data/a.CSV",
		"/data/sub/c.csv",
		"/data/a_processed.csv",
		"/data/sub/processed_c.csv",
		"/data/notes.txt",
	} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0644))
	}

	d := NewDiscovery(fs, "/")
	found, err := d.FindCSVFiles("data")
	require.NoError(t, err)

	var paths []string
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"/data/a.CSV", "/data/b.csv", "/data/sub/c.csv"}, paths)

	expanded, err := d.Expand([]string{"/data/notes.txt", "/data/sub"})
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	assert.Equal(t, "notes.txt", expanded[0].Name)
	assert.Equal(t, "/data/sub/c.csv", expanded[1].Path)

	_, err = d.Expand([]string{"/missing"})
	assert.Error(t, err)
}

func TestFileNamePredicates(t *testing.T) {
	assert.True(t, IsCSV("a.csv"))
	assert.True(t, IsCSV("A.CSV"))
	assert.False(t, IsCSV("a.csv.zip"))
	assert.True(t, IsZip("a.ZIP"))
	assert.True(t, IsProcessedName("processed_a.csv"))
	assert.True(t, IsProcessedName("a_processed.csv"))
	assert.False(t, IsProcessedName("a.csv"))
}
