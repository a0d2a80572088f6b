package uploads

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, h http.Handler, field string, data []byte, key string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, field, data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestUploadHandler_StoreReplayAndServe(t *testing.T) {
	svc := newTestService(t, 1024)
	h := NewRouter(svc, nil)

	rr := doUpload(t, h, "image", pngData("a"), "k-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var first uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.Equal(t, "http://img.test/uploads/"+first.Filename, first.URL)

	rr = doUpload(t, h, "image", pngData("a"), "k-1")
	require.Equal(t, http.StatusOK, rr.Code)
	var second uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, first, second)

	req := httptest.NewRequest(http.MethodGet, "/uploads/"+first.Filename, nil)
	get := httptest.NewRecorder()
	h.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)
	served, _ := io.ReadAll(get.Body)
	assert.Equal(t, pngData("a"), served)
	assert.Equal(t, "image/png", get.Header().Get("Content-Type"))
}

func TestUploadHandler_Errors(t *testing.T) {
	svc := newTestService(t, 32)
	h := NewRouter(svc, nil)

	rr := doUpload(t, h, "file", pngData("a"), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"image":"is required"`)

	rr = doUpload(t, h, "image", []byte("plain text, not an image"), "")
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	rr = doUpload(t, h, "image", pngData(string(make([]byte, 100))), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = doUpload(t, h, "image", pngData("a"), "k")
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doUpload(t, h, "image", pngData("b"), "k")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRouter_HealthAndNoListing(t *testing.T) {
	h := NewRouter(newTestService(t, 1024), nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
