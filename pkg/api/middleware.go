package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/authn"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

type contextKey string

const currentUserKey contextKey = "current_user"

// userFromContext returns the authenticated caller stored by requireAPIKey.
func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(currentUserKey).(*models.User)
	return u
}

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requireAPIKey authenticates the X-API-Key header against svc, storing
// the resolved user on the request context for handlers that need the
// caller's identity (workspace/dataset ownership).
func requireAPIKey(svc *authn.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			key := c.Request().Header.Get("X-API-Key")
			user, err := svc.Authenticate(c.Request().Context(), key)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing X-API-Key")
			}
			ctx := context.WithValue(c.Request().Context(), currentUserKey, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
