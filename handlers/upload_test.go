package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/bookstore/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	got     []byte
	name    string
	err     error
	objects map[string]string
	opened  string
}

func (f *fakeImages) UploadImage(_ context.Context, name string, body io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name = name
	f.got, _ = io.ReadAll(body)
	return "images/abc.png", nil
}

func (f *fakeImages) OpenImage(_ context.Context, key string) (io.ReadCloser, string, error) {
	f.opened = key
	if f.err != nil {
		return nil, "", f.err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, "", service.ErrImageNotFound
	}
	return io.NopCloser(strings.NewReader(body)), "image/png", nil
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	images := &fakeImages{}
	h := &UploadHandler{Images: images, MaxBytes: 1024}

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "image", "cover.png", "image/png", []byte("png-bytes")))

	require.Equal(t, http.StatusOK, rec.Code)
	var body uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Image uploaded successfully", body.Message)
	assert.Equal(t, "/images/abc.png", body.FilePath)
	assert.Equal(t, "cover.png", images.name)
	assert.Equal(t, []byte("png-bytes"), images.got)
}

func TestUpload_Rejects(t *testing.T) {
	h := &UploadHandler{Images: &fakeImages{}, MaxBytes: 1024}

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"not an image", multipartRequest(t, "image", "notes.txt", "text/plain", []byte("hi")), http.StatusBadRequest},
		{"wrong field", multipartRequest(t, "file", "cover.png", "image/png", []byte("x")), http.StatusBadRequest},
		{"too large", multipartRequest(t, "image", "big.png", "image/png", bytes.Repeat([]byte("x"), 4096)), http.StatusBadRequest},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader([]byte("{}"))), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Upload(rec, tc.req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestUpload_StorageFailure(t *testing.T) {
	h := &UploadHandler{Images: &fakeImages{err: errors.New("s3 down")}, MaxBytes: 1024}
	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "image", "cover.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3 down")
}

func TestUpload_NotConfigured(t *testing.T) {
	h := &UploadHandler{MaxBytes: 1024}
	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "image", "cover.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestImage(t *testing.T) {
	images := &fakeImages{objects: map[string]string{"images/abc.png": "png-bytes"}}
	r := chi.NewRouter()
	r.Get("/images/*", (&UploadHandler{Images: images}).Image)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/abc.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "images/abc.png", images.opened)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	images.opened = ""
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/nested/abc.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, images.opened)
}

func TestImage_Failures(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/images/*", (&UploadHandler{Images: &fakeImages{err: errors.New("s3 down")}}).Image)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/abc.png", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3 down")

	r = chi.NewRouter()
	r.Get("/images/*", (&UploadHandler{}).Image)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/abc.png", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
