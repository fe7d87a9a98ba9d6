package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/afero"

	"sprintpulse/internal/dataprocessing"
	apierrors "sprintpulse/internal/errors"
	"sprintpulse/internal/files"
	"sprintpulse/internal/middleware"
	"sprintpulse/internal/services"
	"sprintpulse/internal/storage"
)

// FieldFile is the multipart field carrying the upload to deduplicate
const FieldFile = "file"

// Response headers carrying duplicate counts
const (
	HeaderDuplicateCounts = "X-Duplicate-Counts"
	HeaderDuplicateCount  = "X-Duplicate-Count"
)

// remoteQuery holds the parameters of a remote folder run
type remoteQuery struct {
	Bucket string `json:"bucket" validate:"omitempty,bucketname"`
	Folder string `json:"folder" validate:"required,safepath"`
}

// DedupeHandler removes duplicate rows from uploaded or remote CSV extracts
type DedupeHandler struct {
	service      DedupeServiceInterface
	fs           afero.Fs
	tempDir      string
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDedupeHandler creates a dedupe handler staging uploads under tempDir
func NewDedupeHandler(service DedupeServiceInterface, fsys afero.Fs, tempDir string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DedupeHandler {
	logger = logger.With(slog.String("component", "dedupe_handler"))
	return &DedupeHandler{
		service:      service,
		fs:           fsys,
		tempDir:      tempDir,
		validator:    middleware.NewValidator(logger),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Routes returns the dedupe routes
func (h *DedupeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	multipart := middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")
	r.With(multipart).Post("/zip", h.DedupeZip)
	r.With(multipart).Post("/csv", h.DedupeCSV)
	r.Post("/remote", h.ProcessRemote)

	return r
}

// DedupeZip handles POST /api/dedupe/zip. The response is the processed
// archive; per-file duplicate counts travel in X-Duplicate-Counts.
func (h *DedupeHandler) DedupeZip(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ws, err := files.NewWorkspace(h.fs, h.tempDir, h.logger)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("create workspace", err))
		return
	}
	defer ws.Remove()

	src, name, err := saveUpload(r, ws, FieldFile, "upload.zip")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !hasExt(name, ".zip") {
		h.errorHandler.HandleError(w, r, fmt.Errorf("%w: %s is not a .zip archive", services.ErrInvalidFileType, name))
		return
	}

	dst := ws.Path("processed.zip")
	counts, err := h.service.DedupeZip(r.Context(), src, dst)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	out, err := h.fs.Open(dst)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("open processed archive", err))
		return
	}
	defer out.Close()

	w.Header().Set(HeaderDuplicateCounts, string(countsJSON))
	attachment(w, "application/zip", "processed_"+name)
	if info, err := out.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	h.logger.InfoContext(r.Context(), "archive deduplicated",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", name),
		slog.Int("entries", len(counts)),
	)
	if _, err := io.Copy(w, out); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream archive", slog.String("error", err.Error()))
	}
}

// DedupeCSV handles POST /api/dedupe/csv
func (h *DedupeHandler) DedupeCSV(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	part, header, err := r.FormFile(FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(FieldFile, "file is required"))
			return
		}
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	defer part.Close()

	name := filepath.Base(header.Filename)
	if !hasExt(name, ".csv") {
		h.errorHandler.HandleError(w, r, fmt.Errorf("%w: %s is not a .csv file", services.ErrInvalidFileType, name))
		return
	}

	// Buffered so a parse failure can still become a problem response
	var buf bytes.Buffer
	outcome, err := h.service.DedupeCSV(r.Context(), name, part, &buf)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = apierrors.ErrPayloadTooLarge
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set(HeaderDuplicateCount, strconv.Itoa(outcome.Duplicates))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	attachment(w, contentTypeCSV, filepath.Base(dataprocessing.ProcessedPath(name)))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream csv", slog.String("error", err.Error()))
	}
}

// ProcessRemote handles POST /api/dedupe/remote?bucket=&folder=
func (h *DedupeHandler) ProcessRemote(w http.ResponseWriter, r *http.Request) {
	q := remoteQuery{
		Bucket: strings.TrimSpace(r.URL.Query().Get("bucket")),
		Folder: strings.TrimSpace(r.URL.Query().Get("folder")),
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "processing remote folder",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("bucket", q.Bucket),
		slog.String("folder", q.Folder),
	)

	result, err := h.service.ProcessRemote(r.Context(), q.Bucket, q.Folder)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			err = apierrors.ErrServiceUnavailable
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if result.URLs == nil {
		result.URLs = []string{}
	}
	render.JSON(w, r, result)
}
