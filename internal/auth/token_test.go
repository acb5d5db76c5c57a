package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"useradmin/m/domain"
)

const testSecret = "test-secret"

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(testSecret)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	if _, err := NewTokens(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := newTestTokens(t)
	tok, err := tokens.Issue(42, domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Role != domain.RoleUser {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ID == "" {
		t.Errorf("expected a token id")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != TokenTTL {
		t.Errorf("validity window = %v, want %v", got, TokenTTL)
	}
}

func TestTokens_VerifyRejects(t *testing.T) {
	tokens := newTestTokens(t)
	valid, err := tokens.Issue(1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := newTestTokens(t)
	expired.now = func() time.Time { return time.Now().Add(-TokenTTL - time.Minute) }
	old, err := expired.Issue(1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewTokens("another-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	foreign, err := other.Issue(1, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 1,
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 1, "role": "admin"}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// header and payload of a valid token with a signature made under another key
	parts, foreignParts := strings.Split(valid, "."), strings.Split(foreign, ".")
	tampered := parts[0] + "." + parts[1] + "." + foreignParts[2]

	cases := map[string]string{
		"expired":        old,
		"wrong secret":   foreign,
		"malformed":      "not.a.token",
		"empty":          "",
		"tampered":       tampered,
		"other alg":      hs512,
		"missing expiry": noExpiry,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Verify err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
