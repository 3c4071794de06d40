package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scanvault/scanvault/internal/server/models"
	"github.com/scanvault/scanvault/internal/server/services"
)

// FilesHandler serves the owner-facing file lifecycle endpoints.
type FilesHandler struct {
	files *services.FileService
}

func NewFilesHandler(files *services.FileService) *FilesHandler {
	return &FilesHandler{files: files}
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type uploadURLResponse struct {
	URL              string `json:"url"`
	StorageKey       string `json:"storage_key"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

type fileResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	DownloadURL              string `json:"download_url,omitempty"`
	DownloadExpiresInMinutes int    `json:"download_expires_in_minutes,omitempty"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
	}
}

// UploadURL issues an upload intent: a presigned PUT into quarantine plus
// the storage key the record was created under.
func (h *FilesHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed JSON body")
		return
	}
	intent, err := h.files.CreateUploadIntent(r.Context(), userID(r), req.Filename, req.ContentType, req.SizeBytes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadURLResponse{
		URL:              intent.URL,
		StorageKey:       intent.StorageKey,
		ExpiresInMinutes: intent.ExpiresInMinutes,
	})
}

func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns record metadata; for CLEAN records a presigned download URL
// is attached.
func (h *FilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.files.GetWithDownloadURL(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := toFileResponse(result.File)
	resp.DownloadURL = result.DownloadURL
	resp.DownloadExpiresInMinutes = result.ExpiresInMinutes
	writeJSON(w, http.StatusOK, resp)
}

func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), chi.URLParam(r, "id"), userID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
