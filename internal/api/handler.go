package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/config"
	"useradmin/m/internal/metrics"
)

const maxBodyBytes = 1 << 20

// UserStore is the credential store used by the handlers.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, role domain.Role) (int64, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	RoleByID(ctx context.Context, id int64) (domain.Role, error)
	List(ctx context.Context) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	Delete(ctx context.Context, id int64) error
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	users  UserStore
	hasher *auth.Hasher
	tokens *auth.Tokens
	cfg    *config.Config
}

// New constructs a Handler.
func New(users UserStore, hasher *auth.Hasher, tokens *auth.Tokens, cfg *config.Config) *Handler {
	return &Handler{users: users, hasher: hasher, tokens: tokens, cfg: cfg}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(h.cfg.HTTP.AllowedOrigin),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	r.Get("/health", h.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", h.test)
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(admin chi.Router) {
			admin.Use(h.RequireAdmin)
			admin.Get("/users", h.listUsers)
			admin.Delete("/users/{id}", h.deleteUser)
			admin.Put("/users/{id}/role", h.updateRole)
		})
	})

	return r
}

// allowedOrigins splits a comma separated origin list.
func allowedOrigins(value string) []string {
	var origins []string
	for _, p := range strings.Split(value, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) test(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, messageResponse{Message: "server is reachable"})
}

type messageResponse struct {
	Message string `json:"message"`
}

// Helpers

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}
