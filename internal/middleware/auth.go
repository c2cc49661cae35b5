package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AdminAuth guards administrative endpoints with HMAC-signed bearer
// tokens. Tokens carry role=ADMIN and are minted by ops tooling via
// SignAdminToken.
type AdminAuth struct {
	secret []byte
}

func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{
		secret: []byte(secret),
	}
}

func (a *AdminAuth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// No configured secret means no admin access at all.
			if len(a.secret) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "admin access not configured")
			}

			header := c.Request().Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return a.secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || claims["role"] != "ADMIN" {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			if sub, _ := claims["sub"].(string); sub != "" {
				c.Set("admin_subject", sub)
			}

			return next(c)
		}
	}
}

// SignAdminToken mints an admin bearer token. Used by ops tooling and
// tests.
func SignAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
