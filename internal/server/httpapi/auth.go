package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/scanvault/scanvault/internal/server/services"
)

// AuthHandler serves registration, login, and logout.
type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed JSON body")
		return
	}
	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{ID: user.ID, Username: user.UserName})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "malformed JSON body")
		return
	}
	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// Logout revokes the presented token. Requires bearerAuth, so the token is
// known to be valid at this point.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.users.Logout(r.Context(), bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}
