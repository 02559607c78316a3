package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/gudang/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Sessions *auth.Service
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}

	sess, err := h.Sessions.Login(req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		writeError(w, err)
		return
	}

	slog.Info("user logged in", "user", sess.User.Username, "role", sess.User.Role)
	jsonResponse(w, http.StatusOK, sess)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(getToken(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	jsonResponse(w, http.StatusOK, user.Public())
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}

	err := h.Sessions.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err == nil {
		slog.Info("user changed own password", "user", user.Username)
	}
	writeResult(w, http.StatusOK, map[string]string{"message": "password updated"}, err)
}
