package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/scanvault/scanvault/internal/server/auth"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

const contextKeyUserID contextKey = "user_id"

// userID extracts the authenticated user from the request context.
// Empty when the request did not pass bearerAuth.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyUserID).(string)
	return id
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// bearerAuth validates the access token and rejects anything revoked,
// expired, or malformed before the handler runs.
func bearerAuth(secretKey []byte, blacklist *auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}
			if blacklist.IsRevoked(token) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "token revoked")
				return
			}
			uid, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// webhookAuth enforces the pre-shared scanner secret. The comparison is
// constant-time and happens before any body parsing or lookup, so a caller
// without the secret learns nothing about the key space.
func webhookAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Internal-Secret")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
