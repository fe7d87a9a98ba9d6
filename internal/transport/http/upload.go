package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	apierrors "sprintpulse/internal/errors"
	"sprintpulse/internal/files"
)

// maxFormMemory is the part of a multipart form held in memory; larger
// parts spill to temporary files
const maxFormMemory = 8 << 20

// parseMultipart parses the request form. A body cut off by MaxBodySize
// surfaces as 413.
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return uploadError(err)
	}
	return nil
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apierrors.ErrPayloadTooLarge
	}
	return apierrors.InvalidRequestWithError(err)
}

// saveUpload copies the file part named field into ws under rel. It returns
// the stored path and the client's file name.
func saveUpload(r *http.Request, ws *files.Workspace, field, rel string) (string, string, error) {
	part, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", apierrors.ErrValidation(field, fmt.Sprintf("%s file is required", field))
		}
		return "", "", uploadError(err)
	}
	defer part.Close()

	path, err := ws.WriteFrom(rel, part)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", "", apierrors.ErrPayloadTooLarge
		}
		return "", "", apierrors.FileSystemError("store upload", err)
	}
	return path, filepath.Base(header.Filename), nil
}

// hasExt reports whether name ends in ext, ignoring case
func hasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// attachment sets the download headers for a generated file
func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
