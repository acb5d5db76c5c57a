package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/database"
	"useradmin/m/internal/migrations"
	"useradmin/m/internal/store"
)

func setupUsers(t *testing.T) *store.Users {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewUsers(db)
}

func TestEnsureAdmin_CreatesOnce(t *testing.T) {
	users := setupUsers(t)
	hasher := auth.NewHasher(10)
	ctx := context.Background()

	created, err := EnsureAdmin(ctx, users, hasher, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin = %v, %v", created, err)
	}
	created, err = EnsureAdmin(ctx, users, hasher, "admin", "admin123")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = %v, %v; want no-op", created, err)
	}

	u, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", u.Role)
	}
	if !hasher.Verify("admin123", u.PasswordHash) {
		t.Fatalf("bootstrap password does not verify")
	}
	if n, _ := users.CountByRole(ctx, domain.RoleAdmin); n != 1 {
		t.Fatalf("admin count = %d, want 1", n)
	}
}

func TestEnsureAdmin_SkipsWhenAnyAdminExists(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()
	if _, err := users.Create(ctx, "root", "hash", domain.RoleAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}

	created, err := EnsureAdmin(ctx, users, auth.NewHasher(10), "admin", "admin123")
	if err != nil || created {
		t.Fatalf("EnsureAdmin = %v, %v; want no-op", created, err)
	}
	if _, err := users.GetByUsername(ctx, "admin"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("bootstrap admin should not exist, err = %v", err)
	}
}

func TestEnsureAdmin_DoesNotPromoteSquatter(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()
	id, err := users.Create(ctx, "admin", "hash", domain.RoleUser)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := EnsureAdmin(ctx, users, auth.NewHasher(10), "admin", "admin123"); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("EnsureAdmin err = %v, want ErrUsernameTaken", err)
	}
	role, err := users.RoleByID(ctx, id)
	if err != nil || role != domain.RoleUser {
		t.Fatalf("squatter role = %q, %v; want user", role, err)
	}
}

func TestEnsureAdmin_RejectsOverlongPassword(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()

	_, err := EnsureAdmin(ctx, users, auth.NewHasher(10), "admin", strings.Repeat("x", 80))
	if !errors.Is(err, auth.ErrPasswordTooLong) {
		t.Fatalf("EnsureAdmin err = %v, want ErrPasswordTooLong", err)
	}
	if n, err := users.CountByRole(ctx, domain.RoleAdmin); err != nil || n != 0 {
		t.Fatalf("admins = %d, %v; want none", n, err)
	}
}
