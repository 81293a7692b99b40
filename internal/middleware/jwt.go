// Package middleware contains reusable HTTP middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextToken  = "token"
)

// JWTAuth returns a middleware that validates a Bearer access token signed
// with HS256 and injects the subject, role and the raw token into the
// request context.  The raw token is kept because handlers forward it to
// the upstream ticket API as an explicit per-call credential; nothing in
// this service holds ambient authentication state.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(ContextUserID, claims["sub"])
			c.Set(ContextRole, claims["role"])
			c.Set(ContextToken, raw)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's id from the context, or
// "guest" when none is present.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok && v != "" {
		return v
	}
	return "guest"
}

// Token extracts the raw bearer token stored by JWTAuth.
func Token(c echo.Context) string {
	if v, ok := c.Get(ContextToken).(string); ok {
		return v
	}
	return ""
}
