package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revassist/technician-portal/internal/auth"
	"github.com/revassist/technician-portal/internal/middleware"
	"github.com/revassist/technician-portal/internal/repository"
	"github.com/revassist/technician-portal/internal/service"
)

// currentIdentity fetches the identity resolved by the launch middleware.
// All handlers below sit behind that middleware, so a miss means a wiring
// bug rather than an unauthenticated caller.
func currentIdentity(c echo.Context) (*auth.Context, error) {
	ac, ok := middleware.CurrentIdentity(c)
	if !ok {
		return nil, errors.New("no resolved identity in context")
	}
	return ac, nil
}

// actorFrom converts a resolved identity into the acting subject the
// service layer works with.
func actorFrom(ac *auth.Context) service.Actor {
	return service.Actor{
		TechnicianID: ac.Technician.ID,
		ClientID:     ac.Client.ID,
		Role:         ac.Role,
		Name:         ac.Technician.Name,
	}
}

// fail writes the uniform failure body used across the portal API.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// ok writes the uniform success envelope.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// failFromErr translates service and repository sentinels into the portal's
// status categories. Unrecognized errors are logged by the caller and
// surfaced as a generic internal failure.
func failFromErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "You do not have permission to do that")
	case errors.Is(err, service.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusServiceUnavailable, "Temporary failure, please retry")
	default:
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
}
