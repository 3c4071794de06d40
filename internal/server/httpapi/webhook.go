package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/scanvault/scanvault/internal/server/models"
	"github.com/scanvault/scanvault/internal/server/services"
)

// WebhookHandler receives scan verdicts from the external scanner.
type WebhookHandler struct {
	files *services.FileService
}

func NewWebhookHandler(files *services.FileService) *WebhookHandler {
	return &WebhookHandler{files: files}
}

type scanResultRequest struct {
	StorageKey string `json:"storage_key"`
	Verdict    string `json:"verdict"`
}

// ScanResult applies a verdict to the record under storage_key. Validation
// happens before any lookup: a malformed key or verdict is rejected without
// touching the database.
func (h *WebhookHandler) ScanResult(w http.ResponseWriter, r *http.Request) {
	var req scanResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed JSON body")
		return
	}
	if !models.ValidStorageKey(req.StorageKey) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed storage key")
		return
	}
	verdict, err := models.ParseVerdict(req.Verdict)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "unknown verdict")
		return
	}

	if err := h.files.ApplyVerdict(r.Context(), req.StorageKey, verdict); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
