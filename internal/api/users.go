package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"useradmin/m/domain"
	"useradmin/m/internal/metrics"
	"useradmin/m/internal/store"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.serverError(w, "list", "list users", err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if !h.keepsAnAdmin(w, r, id, "") {
		return
	}

	err := h.users.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.serverError(w, "delete", "delete user", err)
		return
	}
	metrics.UserChanged("deleted")
	log.Printf("user %d deleted by user %d", id, actorID(r))
	w.WriteHeader(http.StatusNoContent)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if !h.keepsAnAdmin(w, r, id, role) {
		return
	}

	err := h.users.UpdateRole(r.Context(), id, role)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.serverError(w, "update_role", "update role", err)
		return
	}
	metrics.UserChanged("role_" + string(role))
	log.Printf("user %d role set to %s by user %d", id, role, actorID(r))
	respondJSON(w, http.StatusOK, messageResponse{Message: "role updated"})
}

// keepsAnAdmin refuses to delete (newRole == "") or demote the only
// remaining admin. It also answers 404 for an unknown id. The check and the
// following write are separate statements, like registration.
func (h *Handler) keepsAnAdmin(w http.ResponseWriter, r *http.Request, id int64, newRole domain.Role) bool {
	target, err := h.users.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return false
	}
	if err != nil {
		h.serverError(w, "admin", "load target user", err)
		return false
	}
	if target.Role != domain.RoleAdmin || newRole == domain.RoleAdmin {
		return true
	}

	admins, err := h.users.CountByRole(r.Context(), domain.RoleAdmin)
	if err != nil {
		h.serverError(w, "admin", "count admins", err)
		return false
	}
	if admins <= 1 {
		respondError(w, http.StatusConflict, "cannot remove the last admin")
		return false
	}
	return true
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims.UserID
	}
	return 0
}
