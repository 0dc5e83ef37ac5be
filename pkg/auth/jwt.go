// Package auth resolves signed tokens to a Principal. Both the HTTP
// middleware and the realtime channel handshake verify tokens through it.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
)

// Principal is the authenticated identity resolved from a credential.
type Principal struct {
	UserID int
	Role   model.Role
}

type claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// GenerateToken creates a signed token embedding the principal.
func GenerateToken(userID int, role model.Role, secret string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "helpdesk",
		},
		UserID: userID,
		Role:   string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and extracts the principal.
func ParseToken(tokenStr, secret string) (Principal, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenStr, c, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, apperr.ErrAuth
	}

	role := model.Role(c.Role)
	if c.UserID == 0 || !role.Valid() {
		return Principal{}, apperr.ErrAuth
	}

	return Principal{UserID: c.UserID, Role: role}, nil
}

// ExtractToken pulls the bearer token from the Authorization header.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
