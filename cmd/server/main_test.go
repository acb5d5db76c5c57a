package main

import (
	"context"
	"errors"
	"testing"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/config"
	"useradmin/m/internal/database"
	"useradmin/m/internal/migrations"
	"useradmin/m/internal/store"
)

func setupUsers(t *testing.T) *store.Users {
	t.Helper()
	db, err := database.Connect(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewUsers(db)
}

func TestBootstrapAdmin_CreatesAdmin(t *testing.T) {
	users := setupUsers(t)
	bc := config.BootstrapConfig{Username: "admin", Password: "admin123"}

	if !bootstrapAdmin(context.Background(), users, auth.NewHasher(10), bc) {
		t.Fatalf("expected the admin to be created")
	}
	role, err := users.RoleByID(context.Background(), 1)
	if err != nil || role != domain.RoleAdmin {
		t.Fatalf("role = %q, %v", role, err)
	}
}

// A regular user holding the bootstrap name makes the bootstrap fail; startup
// goes on without promoting that user.
func TestBootstrapAdmin_FailureDoesNotStopStartup(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()
	id, err := users.Create(ctx, "admin", "hash", domain.RoleUser)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if bootstrapAdmin(ctx, users, auth.NewHasher(10), config.BootstrapConfig{Username: "admin", Password: "admin123"}) {
		t.Fatalf("bootstrap reported success")
	}
	role, err := users.RoleByID(ctx, id)
	if err != nil || role != domain.RoleUser {
		t.Fatalf("squatter role = %q, %v; want user", role, err)
	}
	if _, err := users.GetByUsername(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("store unusable after failed bootstrap: %v", err)
	}
}
