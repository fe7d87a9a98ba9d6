package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"sprintpulse/internal/config"
	apperrors "sprintpulse/internal/errors"
)

// ObjectInfo describes one listed object
type ObjectInfo struct {
	Name string
	Size int64
}

// ObjectStore is the remote bucket the relay reads from and writes to
type ObjectStore interface {
	// List returns the objects directly under prefix
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Download(ctx context.Context, bucket, name string, w io.Writer) error
	Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) error
	// PublicURL returns the address a client can fetch the object from
	PublicURL(bucket, name string) string
}

// ErrNotConfigured is returned when the relay is used without a store
var ErrNotConfigured = apperrors.NewStorageError("remote storage is not configured", nil)

// ErrNoUsableCSV is returned when every CSV of a remote folder was skipped
var ErrNoUsableCSV = apperrors.NewFormatError("no valid CSV files found for processing in the remote folder", nil)

// NewStore creates the store selected by cfg.Provider. The "none" provider
// yields a nil store and no error.
func NewStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ObjectStore, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.PublicBaseURL), nil
	case "gcs":
		return NewGCSStore(ctx, cfg, logger)
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported storage provider %q", cfg.Provider), nil)
}
