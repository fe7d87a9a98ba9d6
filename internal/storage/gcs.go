package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"sprintpulse/internal/config"
	apperrors "sprintpulse/internal/errors"
)

// GCSStore is an ObjectStore on Google Cloud Storage
type GCSStore struct {
	service *gcs.Service
	baseURL string
	logger  *slog.Logger
}

// NewGCSStore creates a Cloud Storage client. Without a credentials file the
// application default credentials are used.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*GCSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create cloud storage service", err)
	}

	logger.Info("Cloud storage client initialized",
		slog.Bool("credentials_file", cfg.CredentialsFile != ""),
		slog.String("public_base_url", cfg.PublicBaseURL))

	return &GCSStore{
		service: service,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:  logger.With(slog.String("component", "gcs_store")),
	}, nil
}

// List returns the objects directly under prefix
func (s *GCSStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	call := s.service.Objects.List(bucket).Prefix(prefix).Delimiter("/").Context(ctx)
	err := call.Pages(ctx, func(page *gcs.Objects) error {
		for _, obj := range page.Items {
			out = append(out, ObjectInfo{Name: obj.Name, Size: int64(obj.Size)})
		}
		return nil
	})
	if err != nil {
		return nil, storageError("list", bucket, prefix, err)
	}
	return out, nil
}

// Download streams the object into w
func (s *GCSStore) Download(ctx context.Context, bucket, name string, w io.Writer) error {
	resp, err := s.service.Objects.Get(bucket, name).Context(ctx).Download()
	if err != nil {
		return storageError("download", bucket, name, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return storageError("download", bucket, name, err)
	}
	return nil
}

// Upload stores r as the object name
func (s *GCSStore) Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) error {
	obj := &gcs.Object{Name: name, ContentType: contentType}
	if _, err := s.service.Objects.Insert(bucket, obj).Media(r).Context(ctx).Do(); err != nil {
		return storageError("upload", bucket, name, err)
	}
	s.logger.DebugContext(ctx, "Object uploaded",
		slog.String("bucket", bucket),
		slog.String("object", name))
	return nil
}

// PublicURL returns <base>/<bucket>/<escaped object name>
func (s *GCSStore) PublicURL(bucket, name string) string {
	return publicURL(s.baseURL, bucket, name)
}

func publicURL(base, bucket, name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), strings.Join(segments, "/"))
}

// storageError wraps a Cloud Storage failure; a missing object or bucket
// becomes NOT_FOUND
func storageError(op, bucket, name string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("object %s/%s not found", bucket, name), err)
	}
	return apperrors.NewStorageError(fmt.Sprintf("%s %s/%s failed", op, bucket, name), err).
		WithContext("bucket", bucket).
		WithContext("object", name)
}
