package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"useradmin/m/domain"
	"useradmin/m/internal/api"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/config"
	"useradmin/m/internal/database"
	"useradmin/m/internal/migrations"
	"useradmin/m/internal/seed"
	"useradmin/m/internal/store"
)

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	db, err := database.Connect(config.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := store.NewUsers(db)
	hasher := auth.NewHasher(10)
	tokens, err := auth.NewTokens("client-test-secret")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if _, err := seed.EnsureAdmin(context.Background(), users, hasher, "admin", "admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{HTTP: config.HTTPConfig{AllowedOrigin: "http://localhost:5173"}}
	srv := httptest.NewServer(api.New(users, hasher, tokens, cfg).Router())
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestClient_Flow(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	if msg, err := c.Test(ctx); err != nil || msg == "" {
		t.Fatalf("Test() = %q, %v", msg, err)
	}

	id, err := c.Register(ctx, "alice", "pw123456")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = c.Register(ctx, "alice", "pw123456")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "username exists" {
		t.Fatalf("duplicate register err = %v", err)
	}

	alice, err := c.Login(ctx, "alice", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if alice.Role != domain.RoleUser || !alice.LoggedIn() {
		t.Fatalf("unexpected session: %+v", alice)
	}
	if _, err := c.WithToken(alice.Token).ListUsers(ctx); !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("user listing err = %v, want 403", err)
	}

	admin, err := c.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	ac := c.WithToken(admin.Token)

	if err := ac.UpdateRole(ctx, id, domain.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}
	users, err := c.WithToken(alice.Token).ListUsers(ctx)
	if err != nil {
		t.Fatalf("list with promoted token: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}

	if err := ac.DeleteUser(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ac.DeleteUser(ctx, id); !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("second delete err = %v, want 404", err)
	}
}

func TestClient_LoginFailure(t *testing.T) {
	c := newTestAPI(t)
	_, err := c.Login(context.Background(), "admin", "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if apiErr.Error() == "" {
		t.Fatalf("empty error text")
	}
}
