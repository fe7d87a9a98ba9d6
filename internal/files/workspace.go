package files

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// WorkspacePrefix starts the directory name of every workspace
const WorkspacePrefix = "temp_"

// Workspace is a private scratch directory for one request or batch.
// Remove must run on every exit path.
type Workspace struct {
	fs     afero.Fs
	id     string
	root   string
	logger *slog.Logger
}

// NewWorkspace creates <tempDir>/temp_<uuid> on fsys
func NewWorkspace(fsys afero.Fs, tempDir string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New().String()
	root := filepath.Join(tempDir, WorkspacePrefix+id)
	if err := fsys.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	ws := &Workspace{
		fs:     fsys,
		id:     id,
		root:   root,
		logger: logger.With(slog.String("component", "workspace"), slog.String("workspace_id", id)),
	}
	ws.logger.Debug("Workspace created", slog.String("root", root))
	return ws, nil
}

// ID returns the workspace key
func (w *Workspace) ID() string {
	return w.id
}

// Root returns the workspace directory
func (w *Workspace) Root() string {
	return w.root
}

// Fs returns the filesystem the workspace lives on
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Path joins elem onto the workspace root
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// WriteFrom copies r into the workspace file rel, creating parent
// directories, and returns the full path
func (w *Workspace) WriteFrom(rel string, r io.Reader) (string, error) {
	path := w.Path(rel)
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := w.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", rel, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}

	w.logger.Debug("Workspace file written",
		slog.String("file", rel),
		slog.Int64("size_bytes", n))
	return path, nil
}

// Remove deletes the workspace and everything in it. Errors are logged, not
// returned, so it can be deferred.
func (w *Workspace) Remove() {
	if err := w.fs.RemoveAll(w.root); err != nil {
		w.logger.Warn("Failed to remove workspace",
			slog.String("root", w.root),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("Workspace removed", slog.String("root", w.root))
}
