package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apierrors "sprintpulse/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

// upload is one file part of a multipart request
type upload struct {
	field    string
	filename string
	body     string
}

// multipartRequest builds a POST request carrying the given file parts
func multipartRequest(t *testing.T, target string, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		part, err := mw.CreateFormFile(u.field, u.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, u.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// problemField returns the field named by the validation details of a
// problem response
func problemField(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	detail := body["details"]
	if list, ok := detail.([]interface{}); ok {
		require.NotEmpty(t, list)
		detail = list[0]
	}
	first, ok := detail.(map[string]interface{})
	require.True(t, ok, "problem has no field details: %v", body)
	field, _ := first["field"].(string)
	return field
}

func httptestPost(target string) *http.Request {
	return httptest.NewRequest(http.MethodPost, target, nil)
}
