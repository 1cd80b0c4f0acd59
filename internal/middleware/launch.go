package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/auth"
	"github.com/revassist/technician-portal/internal/logger"
	"github.com/revassist/technician-portal/internal/queue"
	"github.com/revassist/technician-portal/internal/service"
)

// identityKey is where the resolved identity lives in the Echo context.
const identityKey = "identity"

// CurrentIdentity returns the identity resolved by LaunchIdentity for this
// request. The second return is false when the middleware did not run,
// which on a protected route means a wiring bug.
func CurrentIdentity(c echo.Context) (*auth.Context, bool) {
	v := c.Get(identityKey)
	ac, ok := v.(*auth.Context)
	return ac, ok
}

// LaunchIdentity returns the middleware guarding every protected endpoint.
// The embedding host supplies opaque `location` and `user` identifiers on
// each request, plus an optional signed `token`; there is no persistent
// session. The middleware verifies the token when present, resolves both
// identifiers to the internal identity, attaches it to the request, and
// publishes a portal.access audit event. Any failure short-circuits the
// request before business logic runs.
func LaunchIdentity(resolver *auth.Resolver, tokenSecret string, events *service.EventPublisher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			if raw := c.QueryParam("token"); raw != "" {
				if err := auth.VerifyLaunchToken(raw, tokenSecret); err != nil {
					log.Warn("launch token rejected", zap.Error(err))
					return fail(c, http.StatusUnauthorized, "Invalid token")
				}
			}

			ac, err := resolver.Resolve(c.Request().Context(), c.QueryParam("location"), c.QueryParam("user"))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrMissingParams):
					return fail(c, http.StatusBadRequest, "Missing location or user parameter")
				case errors.Is(err, auth.ErrInvalidLocation):
					return fail(c, http.StatusUnauthorized, "Invalid or inactive location")
				case errors.Is(err, auth.ErrInvalidUser):
					return fail(c, http.StatusUnauthorized, "Invalid or inactive user")
				case errors.Is(err, context.DeadlineExceeded):
					return fail(c, http.StatusServiceUnavailable, "Temporary failure, please retry")
				default:
					log.Error("identity resolution failed", zap.Error(err))
					return fail(c, http.StatusInternalServerError, "Internal error")
				}
			}

			c.Set(identityKey, ac)

			ev := queue.PortalAccessEvent{
				TechnicianID:       ac.Technician.ID,
				TechnicianName:     ac.Technician.Name,
				ClientID:           ac.Client.ID,
				ClientName:         ac.Client.Name,
				Role:               string(ac.Role),
				LocationExternalID: ac.LocationMapping.ExternalID,
				AccessedAt:         time.Now().UTC().Format(time.RFC3339),
			}
			go func() {
				// Audit only; a dead broker never blocks the launch.
				_ = events.PortalAccess(context.Background(), ev)
			}()

			return next(c)
		}
	}
}

// fail writes the uniform failure body used across the portal API.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}
