package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/metrics"
	"useradmin/m/internal/store"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// RequireAdmin admits requests carrying a valid bearer token whose user is
// currently an admin.
//
// Authoritative role source is the store, not the token: the role claim
// inside the token is never consulted. A demotion or promotion therefore
// applies to the next request even though earlier tokens stay valid until
// they expire.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			metrics.Auth("admin", metrics.OutcomeUnauthorized)
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.tokens.Verify(tokenString)
		if err != nil {
			metrics.Auth("admin", metrics.OutcomeUnauthorized)
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		role, err := h.users.RoleByID(r.Context(), claims.UserID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.Auth("admin", metrics.OutcomeForbidden)
			respondError(w, http.StatusForbidden, "account no longer exists")
			return
		case err != nil:
			log.Printf("admin: load role for user %d: %v", claims.UserID, err)
			metrics.Auth("admin", metrics.OutcomeError)
			respondError(w, http.StatusInternalServerError, "server error")
			return
		case role != domain.RoleAdmin:
			metrics.Auth("admin", metrics.OutcomeForbidden)
			respondError(w, http.StatusForbidden, "admin role required")
			return
		}

		metrics.Auth("admin", metrics.OutcomeSuccess)
		ctx := context.WithValue(r.Context(), ctxClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ClaimsFromContext returns the verified claims attached by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxClaims).(*auth.Claims)
	return claims, ok
}
