package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRevoker invalidates a bearer token until it would have expired anyway.
type TokenRevoker interface {
	Blacklist(ctx context.Context, token string, expiration time.Duration) error
}

type AuthHandler struct {
	revoker TokenRevoker
	logger  Logger
}

func NewAuthHandler(revoker TokenRevoker, log Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: log}
}

// Logout revokes the caller's bearer token. The route sits behind the auth
// middleware, so the token has already been validated; the revocation window
// matches the token's remaining lifetime so the blacklist entry expires with it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		h.respondError(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	tokenString := parts[1]

	ttl := 24 * time.Hour
	if token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{}); err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			if remaining := time.Until(exp.Time); remaining > 0 {
				ttl = remaining
			}
		}
	}

	if err := h.revoker.Blacklist(r.Context(), tokenString, ttl); err != nil {
		h.logger.Error("Failed to revoke token", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *AuthHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
