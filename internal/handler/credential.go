package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/logger"
	"github.com/revassist/technician-portal/internal/repository"
	"github.com/revassist/technician-portal/internal/utils"
)

// CredentialHandler lets the resolved technician change their own password.
// A first-login technician has no credential to prove yet, so the current
// password check is skipped until the first change lands; after that a
// change always requires the current password.
type CredentialHandler struct {
	Technicians *repository.TechnicianRepo
	BcryptCost  int
}

// NewCredentialHandler constructs a CredentialHandler.
func NewCredentialHandler(technicians *repository.TechnicianRepo, bcryptCost int) *CredentialHandler {
	if technicians == nil {
		panic("nil repository passed to NewCredentialHandler")
	}
	return &CredentialHandler{Technicians: technicians, BcryptCost: bcryptCost}
}

// ChangePassword handles POST /v1/technicians/me/password.
func (h *CredentialHandler) ChangePassword(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if len(body.NewPassword) < 8 {
		return fail(c, http.StatusBadRequest, "new_password must be at least 8 characters")
	}

	tech, err := h.Technicians.GetByID(c.Request().Context(), ac.Technician.ID)
	if err != nil {
		logger.FromEcho(c).Error("load technician", zap.Error(err))
		return failFromErr(c, err)
	}
	if !tech.FirstLogin {
		if !utils.CheckPassword(tech.PasswordHash, body.CurrentPassword) {
			return fail(c, http.StatusUnauthorized, "Current password is incorrect")
		}
	}

	hash, err := utils.HashPassword(body.NewPassword, h.BcryptCost)
	if err != nil {
		logger.FromEcho(c).Error("hash password", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Internal error")
	}
	if err := h.Technicians.UpdatePassword(c.Request().Context(), tech.ID, hash); err != nil {
		logger.FromEcho(c).Error("update password", zap.Error(err))
		return failFromErr(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"changed": true})
}
