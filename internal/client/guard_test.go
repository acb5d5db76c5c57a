package client

import (
	"testing"

	"useradmin/m/domain"
)

func TestGuard(t *testing.T) {
	anon := &Session{}
	user := &Session{Token: "t", Role: domain.RoleUser}
	admin := &Session{Token: "t", Role: domain.RoleAdmin}
	forgedRole := &Session{Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		path    string
		session *Session
		want    string
	}{
		{"root always redirects", "/", admin, "/login"},
		{"anonymous login page", "/login", anon, ""},
		{"anonymous register page", "/register", nil, ""},
		{"anonymous admin page", "/admin", anon, "/login"},
		{"anonymous user home", "/user-home", anon, "/login"},
		{"user admin page", "/admin", user, "/login"},
		{"user home", "/user-home", user, ""},
		{"admin page", "/admin", admin, ""},
		{"admin user home", "/user-home", admin, ""},
		{"user on login goes home", "/login", user, "/user-home"},
		{"admin on register goes to admin", "/register", admin, "/admin"},
		{"role without token", "/admin", forgedRole, "/login"},
		{"unknown path passes", "/about", anon, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Guard(tt.path, tt.session)
			if got.Redirect != tt.want {
				t.Fatalf("Guard(%q) redirect = %q, want %q", tt.path, got.Redirect, tt.want)
			}
			if got.Allowed() != (tt.want == "") {
				t.Fatalf("Allowed() = %v", got.Allowed())
			}
		})
	}
}

func TestLanding(t *testing.T) {
	if got := Landing(domain.RoleAdmin); got != "/admin" {
		t.Errorf("admin landing = %q", got)
	}
	if got := Landing(domain.RoleUser); got != "/user-home" {
		t.Errorf("user landing = %q", got)
	}
}
