package seed

import (
	"context"
	"fmt"
	"log"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
)

// AdminStore is the part of the credential store the bootstrap needs.
type AdminStore interface {
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	Create(ctx context.Context, username, passwordHash string, role domain.Role) (int64, error)
}

// EnsureAdmin creates an admin account when no user holds the admin role.
// It reports whether an account was created.
//
// The bootstrap credentials are well known by default. This is an
// operational hazard: rotate the password right after first start.
func EnsureAdmin(ctx context.Context, users AdminStore, hasher *auth.Hasher, username, password string) (bool, error) {
	admins, err := users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	if len(password) > auth.MaxPasswordBytes {
		return false, fmt.Errorf("bootstrap password: %w", auth.ErrPasswordTooLong)
	}
	hashed, err := hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}
	id, err := users.Create(ctx, username, hashed, domain.RoleAdmin)
	if err != nil {
		// A regular user holding the bootstrap name is not promoted.
		return false, fmt.Errorf("create bootstrap admin %q: %w", username, err)
	}
	log.Printf("created bootstrap admin %q (id %d)", username, id)
	return true, nil
}
