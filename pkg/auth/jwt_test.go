package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, model.RoleClient, "secret")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	principal, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if principal.UserID != 42 || principal.Role != model.RoleClient {
		t.Errorf("principal = %+v", principal)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(42, model.RoleClient, "secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, "other-secret"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", "secret"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	if _, err := ParseToken("", "secret"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("empty token: err = %v, want ErrAuth", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		UserID: 42,
		Role:   "client",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, "secret"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
}

func TestParseTokenUnknownRole(t *testing.T) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 42,
		Role:   "superuser",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken(token, "secret"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := ExtractToken(req); got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
