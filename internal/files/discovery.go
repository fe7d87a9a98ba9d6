package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds input files for the batch commands
type Discovery struct {
	fs       afero.Fs
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(fsys afero.Fs, basePath string) *Discovery {
	return &Discovery{fs: fsys, basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindCSVFiles finds all CSV files under dir, recursively, sorted by path.
// Files produced by an earlier dedupe run are left out.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	root := d.resolve(dir)

	var found []FileInfo
	err := afero.Walk(d.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsCSV(info.Name()) || IsProcessedName(info.Name()) {
			return nil
		}
		found = append(found, FileInfo{
			Path:    p,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Expand turns command line arguments into input files. Directories are
// searched for CSV files; plain files are returned as given.
func (d *Discovery) Expand(args []string) ([]FileInfo, error) {
	var out []FileInfo
	for _, arg := range args {
		p := d.resolve(arg)
		info, err := d.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := d.FindCSVFiles(p)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
			continue
		}
		out = append(out, FileInfo{Path: p, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

// IsProcessedName reports whether name is the output of a dedupe run
func IsProcessedName(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasPrefix(name, ProcessedPrefix) || strings.HasSuffix(base, "_processed")
}

// IsZip reports whether name has a .zip extension
func IsZip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}
