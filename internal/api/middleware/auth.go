package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const (
	// TokenCookie is the cookie carrying the session token.
	TokenCookie = "token"
	// UserKey is the echo.Context key holding the resolved *domain.User.
	UserKey = "user"
)

// Authenticate resolves the session token to a user and stores it under
// UserKey. The token is read from the token cookie first and from an
// "Authorization: Bearer" header otherwise. Every token problem yields
// domain.ErrUnauthenticated; a store failure is passed through.
func Authenticate(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				metrics.AuthEventsTotal.WithLabelValues("token", "missing").Inc()
				return domain.ErrUnauthenticated
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					metrics.AuthEventsTotal.WithLabelValues("token", "rejected").Inc()
				} else {
					metrics.AuthEventsTotal.WithLabelValues("token", "error").Inc()
				}
				return err
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserKey).(*domain.User)
	return u
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
