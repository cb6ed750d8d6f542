package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hope-foundation/apiserver/internal/services"
)

const (
	maxImageBytes      = 10 << 20
	maxMultipartMemory = maxImageBytes + 1<<20
	formFieldFile      = "file"
)

// UploadHandler accepts admin image uploads.
type UploadHandler struct {
	uploads UploadService
	log     *slog.Logger
}

func NewUploadHandler(uploads UploadService, log *slog.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, log: log}
}

// UploadRouter registers upload routes; every route is admin only.
func UploadRouter(r chi.Router, uploads UploadService, log *slog.Logger, adminOnly chi.Middlewares) {
	handler := NewUploadHandler(uploads, log)

	r.With(adminOnly...).Post("/{kind}", handler.Upload)
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !services.IsUploadKind(kind) {
		writeError(w, http.StatusBadRequest, "invalid upload kind")
		return
	}

	data, err := parseImageFile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.uploads.Upload(r.Context(), kind, data)
	if err != nil {
		writeServiceError(w, r, h.log, err, "upload image")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func parseImageFile(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, errors.New("invalid multipart form")
	}

	files := r.MultipartForm.File[formFieldFile]
	if len(files) == 0 {
		return nil, errors.New("file is required")
	}
	if len(files) > 1 {
		return nil, errors.New("only one file is allowed")
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	defer file.Close()

	return readFileLimited(file, maxImageBytes)
}
