// Package httpapi exposes the service over REST: auth, file lifecycle
// operations, and the scanner webhook. All error responses share the
// envelope {"error":{"code":"...","message":"..."}}.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scanvault/scanvault/internal/common"
)

// Machine-readable error codes carried in the envelope.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateName      = "DUPLICATE_NAME"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps a service-layer sentinel to its HTTP rendering.
// Unrecognized errors become an opaque 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		writeError(w, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, common.ErrorUnauthenticated),
		errors.Is(err, common.ErrorInvalidLoginPassword):
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication failed")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, CodeForbidden, "access denied")
	case errors.Is(err, common.ErrorQuotaExceeded):
		writeError(w, http.StatusForbidden, CodeQuotaExceeded, "file quota exceeded")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, common.ErrorDuplicateName),
		errors.Is(err, common.ErrorLoginAlreadyExists):
		writeError(w, http.StatusConflict, CodeDuplicateName, "already exists")
	case errors.Is(err, common.ErrorBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, CodeBackendUnavailable, "storage backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}

// writeJSON writes a success payload.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
