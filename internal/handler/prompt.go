package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/logger"
	"github.com/revassist/technician-portal/internal/repository"
	"github.com/revassist/technician-portal/internal/service"
)

// PromptHandler exposes prompt listing, creation, editing and activation.
// Every ownership and role decision lives in the ActivationManager; the
// handler only binds, validates shape, and translates errors.
type PromptHandler struct {
	Manager *service.ActivationManager
}

// NewPromptHandler constructs a PromptHandler and panics if the manager is
// nil.
func NewPromptHandler(m *service.ActivationManager) *PromptHandler {
	if m == nil {
		panic("nil manager passed to NewPromptHandler")
	}
	return &PromptHandler{Manager: m}
}

// List handles GET /v1/prompts. With ?technician_id=N each returned prompt
// is annotated with whether it is currently active for that technician;
// without the filter the listing is the actor's own view (everything for
// managers, system plus own prompts for technicians).
func (h *PromptHandler) List(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}

	var filter *uint64
	if raw := strings.TrimSpace(c.QueryParam("technician_id")); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil || id == 0 {
			return fail(c, http.StatusBadRequest, "Invalid technician_id")
		}
		filter = &id
	}

	items, err := h.Manager.List(c.Request().Context(), actorFrom(ac), filter, c.QueryParam("purpose"))
	if err != nil {
		logger.FromEcho(c).Error("list prompts", zap.Error(err))
		return failFromErr(c, err)
	}
	return ok(c, http.StatusOK, items)
}

// Create handles POST /v1/prompts. The body's "system" flag is a request,
// not a right: a plain technician always ends up owning the prompt they
// created, whatever they sent.
func (h *PromptHandler) Create(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}

	var body struct {
		Name        string `json:"name"`
		Purpose     string `json:"purpose"`
		Content     string `json:"content"`
		Description string `json:"description"`
		System      bool   `json:"system"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Content) == "" {
		return fail(c, http.StatusBadRequest, "name and content are required")
	}

	p, err := h.Manager.Create(c.Request().Context(), actorFrom(ac), service.CreateInput{
		Name:        body.Name,
		Purpose:     body.Purpose,
		Content:     body.Content,
		Description: body.Description,
		System:      body.System,
	})
	if err != nil {
		logger.FromEcho(c).Error("create prompt", zap.Error(err))
		return failFromErr(c, err)
	}
	return ok(c, http.StatusCreated, p)
}

// Edit handles PUT /v1/prompts/:id. Allowed for the owner or a
// manager/admin; each accepted edit bumps the stored version.
func (h *PromptHandler) Edit(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	promptID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promptID == 0 {
		return fail(c, http.StatusBadRequest, "Invalid prompt id")
	}

	var body struct {
		Name        string `json:"name"`
		Content     string `json:"content"`
		Description string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(body.Content) == "" {
		return fail(c, http.StatusBadRequest, "content is required")
	}

	p, err := h.Manager.Edit(c.Request().Context(), actorFrom(ac), promptID, service.EditInput{
		Name:        body.Name,
		Content:     body.Content,
		Description: body.Description,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Prompt not found")
		}
		if !isClientFault(err) {
			logger.FromEcho(c).Error("edit prompt", zap.Uint64("prompt_id", promptID), zap.Error(err))
		}
		return failFromErr(c, err)
	}
	return ok(c, http.StatusOK, p)
}

// Activate handles POST /v1/prompts/:id/activate. The body's technician_id
// is optional; when present it must equal the acting technician, because an
// activation is always for the actor's own session. An admin selecting a
// system prompt still activates it for themselves only.
func (h *PromptHandler) Activate(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	promptID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promptID == 0 {
		return fail(c, http.StatusBadRequest, "Invalid prompt id")
	}

	var body struct {
		TechnicianID uint64 `json:"technician_id"`
		Purpose      string `json:"purpose"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if body.TechnicianID != 0 && !ac.IsSelf(body.TechnicianID) {
		return fail(c, http.StatusBadRequest, "technician_id must be the acting technician")
	}

	res, err := h.Manager.Activate(c.Request().Context(), actorFrom(ac), promptID, body.Purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Prompt not found")
		}
		if !isClientFault(err) {
			logger.FromEcho(c).Error("activate prompt", zap.Uint64("prompt_id", promptID), zap.Error(err))
		}
		return failFromErr(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"activation":     res.Activation,
		"prompt_content": res.Prompt.Content,
	})
}

// ActiveForTechnician handles GET /v1/manage/technicians/:id/active-prompt.
// It lets a manager or admin inspect which prompt currently governs any
// technician's session; the route sits behind the manager role gate.
func (h *PromptHandler) ActiveForTechnician(c echo.Context) error {
	ac, err := currentIdentity(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	technicianID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || technicianID == 0 {
		return fail(c, http.StatusBadRequest, "Invalid technician id")
	}

	res, err := h.Manager.ActiveBinding(c.Request().Context(), actorFrom(ac), technicianID, c.QueryParam("purpose"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "No active prompt for this technician")
		}
		if !isClientFault(err) {
			logger.FromEcho(c).Error("active prompt lookup", zap.Uint64("technician_id", technicianID), zap.Error(err))
		}
		return failFromErr(c, err)
	}
	return ok(c, http.StatusOK, res)
}

// isClientFault reports whether err is an expected caller-visible outcome
// that does not warrant an error-level log entry.
func isClientFault(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForbidden)
}
