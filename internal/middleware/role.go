package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireManagerOrAdmin aborts the request with 403 unless the resolved
// identity carries the manager or admin role. It must run after
// LaunchIdentity; a missing identity is treated as unauthenticated rather
// than forbidden.
func RequireManagerOrAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, ok := CurrentIdentity(c)
			if !ok {
				return fail(c, http.StatusUnauthorized, "Not authenticated")
			}
			if !ac.IsManagerOrAdmin() {
				return fail(c, http.StatusForbidden, "Manager or admin role required")
			}
			return next(c)
		}
	}
}
