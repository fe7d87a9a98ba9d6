// Package validation checks command line inputs and outputs before a
// pipeline run touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	apperrors "sprintpulse/internal/errors"
)

const writeProbe = ".write_test"

// FileValidator validates extract files and output directories on a filesystem
type FileValidator struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(fsys afero.Fs, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{fs: fsys, logger: logger}
}

// ValidateFile checks that path exists, is not a directory and can be opened
func (v *FileValidator) ValidateFile(path string) error {
	info, err := v.fs.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewLoadError(fmt.Sprintf("file %s does not exist", path), err)
	}
	if err != nil {
		return apperrors.NewLoadError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	f, err := v.fs.Open(path)
	if err != nil {
		return apperrors.NewLoadError(fmt.Sprintf("file %s is not readable", path), err)
	}
	f.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile is ValidateFile plus a .csv extension check
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		v.logger.Error("File is not a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is not a CSV file (extension: %s)", path, ext))
	}
	return nil
}

// ValidateExtracts runs ValidateCSVFile over every non-empty path
func (v *FileValidator) ValidateExtracts(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := v.ValidateCSVFile(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutputDirectory creates dir when missing and checks that it accepts new files
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := v.fs.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe := filepath.Join(dir, writeProbe)
	f, err := v.fs.Create(probe)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	f.Close()
	_ = v.fs.Remove(probe)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
