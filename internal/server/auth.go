package server

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/orbitcrm/assist/internal/assistant/kb"
)

// identity is what the chat API knows about a caller. Anonymous callers are
// allowed; they are served as unauthenticated customers.
type identity struct {
	UserID        string
	Role          kb.Role
	Authenticated bool
}

func anonymous() identity {
	return identity{Role: kb.RoleCustomer}
}

// identityFrom resolves the caller from a Bearer token or auth cookie. Any
// missing or invalid token degrades to the anonymous identity instead of
// rejecting the request; the chat handler fills in a per-client session id
// for anonymous callers.
func identityFrom(c echo.Context, secret []byte) identity {
	tok := extractToken(c)
	if tok == "" || len(secret) == 0 {
		return anonymous()
	}
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return anonymous()
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return anonymous()
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return anonymous()
	}
	role, _ := claims["role"].(string)
	return identity{UserID: sub, Role: kb.ParseRole(role), Authenticated: true}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}

// SignToken issues an HS256 token carrying the subject and role claims the
// chat API reads back. Used by operational tooling and tests.
func SignToken(subject string, role kb.Role, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
