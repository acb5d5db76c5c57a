package api

import (
	"errors"
	"log"
	"net/http"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/metrics"
	"useradmin/m/internal/store"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// register creates a user with role "user". Any role in the body is ignored.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.Auth("register", metrics.OutcomeInvalidInput)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = domain.NormalizeUsername(req.Username)
	if req.Username == "" || req.Password == "" {
		metrics.Auth("register", metrics.OutcomeInvalidInput)
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		metrics.Auth("register", metrics.OutcomeInvalidInput)
		respondError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	}

	exists, err := h.users.UsernameExists(r.Context(), req.Username)
	if err != nil {
		h.serverError(w, "register", "check username", err)
		return
	}
	if exists {
		metrics.Auth("register", metrics.OutcomeConflict)
		respondError(w, http.StatusBadRequest, "username exists")
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.serverError(w, "register", "hash password", err)
		return
	}

	// The pre-check above races with concurrent registrations; the UNIQUE
	// constraint decides.
	id, err := h.users.Create(r.Context(), req.Username, hashed, domain.RoleUser)
	if errors.Is(err, store.ErrUsernameTaken) {
		metrics.Auth("register", metrics.OutcomeConflict)
		respondError(w, http.StatusBadRequest, "username exists")
		return
	}
	if err != nil {
		h.serverError(w, "register", "create user", err)
		return
	}

	metrics.Auth("register", metrics.OutcomeSuccess)
	metrics.UserChanged("created")
	respondJSON(w, http.StatusCreated, registerResponse{Message: "registered", UserID: id})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.Auth("login", metrics.OutcomeInvalidInput)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = domain.NormalizeUsername(req.Username)
	if req.Username == "" || req.Password == "" {
		metrics.Auth("login", metrics.OutcomeInvalidInput)
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		metrics.Auth("login", metrics.OutcomeUnauthorized)
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if err != nil {
		h.serverError(w, "login", "load user", err)
		return
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		metrics.Auth("login", metrics.OutcomeUnauthorized)
		respondError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.serverError(w, "login", "issue token", err)
		return
	}

	metrics.Auth("login", metrics.OutcomeSuccess)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Role: user.Role})
}

// serverError logs err and answers with a generic 500.
func (h *Handler) serverError(w http.ResponseWriter, operation, step string, err error) {
	log.Printf("%s: %s: %v", operation, step, err)
	metrics.Auth(operation, metrics.OutcomeError)
	respondError(w, http.StatusInternalServerError, "server error")
}
