package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/compendium/internal/auth"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/store"
)

// AdminHandler handles the admin gate.
type AdminHandler struct {
	DB        *db.DB
	Gate      *auth.Gate
	JWTSecret string
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Gate.Unlock(req.Secret); err != nil {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "access denied")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, model.RoleAdmin)
	if err != nil {
		slog.Error("generating admin token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("admin logged in", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: time.Now().Add(auth.TokenExpiry).UTC()})
}

// Logout handles POST /api/admin/logout.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("revoking admin token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if n, err := store.PurgeRevokedTokens(r.Context(), h.DB, time.Now()); err != nil {
		slog.Warn("purging expired sessions", "error", err)
	} else if n > 0 {
		slog.Debug("purged expired sessions", "count", n)
	}

	slog.Info("admin logged out")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
