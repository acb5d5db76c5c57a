package domain

import "strings"

// Role gates access to administrative endpoints.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles. Matching is exact.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole returns the role named by s, or false when s is not exactly
// "admin" or "user".
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password"`
	Role         Role   `json:"role" db:"role"`
	CreatedAt    string `json:"createdAt" db:"created_at"`
}

// NormalizeUsername trims surrounding whitespace. Case is preserved.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
