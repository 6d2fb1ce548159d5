package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/bookstore/apperr"
	"github.com/kevinaaaquil/bookstore/service"
)

// ImageStore persists uploaded images and serves them back by object key.
type ImageStore interface {
	UploadImage(ctx context.Context, originalFilename string, body io.Reader, contentType string) (string, error)
	OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type UploadHandler struct {
	Images   ImageStore
	MaxBytes int64
}

type uploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

// Upload accepts one image in the multipart field "image".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, apperr.Validation("File too large"))
			return
		}
		writeError(w, r, apperr.Validation("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, apperr.Validation("No file provided"))
		return
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		writeError(w, r, apperr.Validation("File too large"))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, r, apperr.Validation("Only image files are allowed!"))
		return
	}
	if h.Images == nil {
		writeMessage(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}
	key, err := h.Images.UploadImage(r.Context(), header.Filename, file, contentType)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "failed to upload image"))
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: "Image uploaded successfully", FilePath: "/" + key})
}

// Image serves an uploaded image at the filePath Upload returned.
func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		writeError(w, r, apperr.NotFound("Image NOT FOUND!"))
		return
	}
	if h.Images == nil {
		writeMessage(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}
	body, contentType, err := h.Images.OpenImage(r.Context(), service.ImagePrefix+name)
	if errors.Is(err, service.ErrImageNotFound) {
		writeError(w, r, apperr.NotFound("Image NOT FOUND!"))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal(err, "failed to load image"))
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("serve image %s: %v", name, err)
	}
}
