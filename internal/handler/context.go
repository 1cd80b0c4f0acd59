package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetContext handles GET /v1/context. It returns the identity resolved for
// this launch in the shape the dashboard consumes: technician, client,
// role and the capability set. No extra lookups happen here; the launch
// middleware already assembled everything.
func GetContext(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	return ok(c, http.StatusOK, echo.Map{
		"technician": echo.Map{
			"id":       ac.Technician.ID,
			"name":     ac.Technician.Name,
			"crm_code": ac.Technician.CRMCode,
		},
		"client": echo.Map{
			"id":   ac.Client.ID,
			"name": ac.Client.Name,
		},
		"user_role":            ac.Role,
		"permissions":          ac.Permissions,
		"first_login":          ac.Technician.FirstLogin,
		"must_change_password": ac.Technician.MustChangePassword,
	})
}
