package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/service"
)

// UserHandler serves the account deletion endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleDeleteMe removes the caller's own account, their listings, and the
// listings' images.
//
// DELETE /api/users/me. Any authenticated user; responds 204.
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.users.DeleteMe(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes another user's account with the same cascade.
//
// DELETE /api/users/{id}. Superuser only; responds 204.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apperror.ValidationFailed("id", "user id must be a positive integer"))
		return
	}

	if err := h.users.Delete(r.Context(), id, caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
