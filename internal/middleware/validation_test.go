package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
)

type remoteQuery struct {
	Bucket string `json:"bucket" validate:"omitempty,bucketname"`
	Folder string `json:"folder" validate:"required,safepath"`
	Until  string `json:"until" validate:"omitempty,datetime=2006-01-02"`
	Kind   string `json:"kind" validate:"omitempty,oneof=todo in-progress done"`
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator(testLogger())

	tests := []struct {
		name      string
		query     remoteQuery
		wantField string
	}{
		{name: "valid", query: remoteQuery{Bucket: "sprint-data", Folder: "team/upload_01", Until: "2024-03-01", Kind: "done"}},
		{name: "leading slash", query: remoteQuery{Folder: "/team/upload_01/"}},
		{name: "missing folder", query: remoteQuery{}, wantField: "folder"},
		{name: "traversal", query: remoteQuery{Folder: "team/../../etc"}, wantField: "folder"},
		{name: "backslash", query: remoteQuery{Folder: `team\upload`}, wantField: "folder"},
		{name: "bad bucket", query: remoteQuery{Bucket: "Bad_Bucket!", Folder: "x"}, wantField: "bucket"},
		{name: "bad date", query: remoteQuery{Folder: "x", Until: "01/03/2024"}, wantField: "until"},
		{name: "bad kind", query: remoteQuery{Folder: "x", Kind: "blocked"}, wantField: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.query)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var apiErr *apperrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			fields, ok := apiErr.Details.([]apperrors.ValidationError)
			require.True(t, ok)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.wantField, fields[0].Field)
			assert.NotEmpty(t, fields[0].Message)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator(apperrors.NewErrorHandler(testLogger(), false), "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", http.StatusOK},
		{"json", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"get skips", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/metrics", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
