package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	Inventory *inventory.Controller
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

var errDeleteSelf = apperr.Validation(apperr.ErrInvalidField, "you cannot delete your own account")

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.Inventory.Users()
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	jsonResponse(w, http.StatusOK, out)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}

	user, err := h.Inventory.AddUser(r.Context(), model.User{Username: req.Username, Password: req.Password, Role: req.Role})
	if user != nil {
		pub := user.Public()
		user = &pub
		slog.Info("user created", "user", user.Username, "role", user.Role)
	}
	writeResult(w, http.StatusCreated, user, err)
}

// Update handles PUT /api/users/{id}. A password in the body resets the
// user's password.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		badBody(w)
		return
	}

	user, err := h.Inventory.UpdateUser(r.Context(), r.PathValue("id"), patch)
	if user != nil {
		pub := user.Public()
		user = &pub
	}
	writeResult(w, http.StatusOK, user, err)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if me, _ := GetUser(r.Context()); me.ID == id {
		writeError(w, errDeleteSelf)
		return
	}

	err := h.Inventory.DeleteUser(r.Context(), id)
	if err == nil {
		slog.Info("user deleted", "id", id)
	}
	writeResult(w, http.StatusOK, map[string]string{"message": "user deleted"}, err)
}
