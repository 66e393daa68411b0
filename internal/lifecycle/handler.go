package lifecycle

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgvault/backend/internal/middleware"
	"github.com/orgvault/backend/pkg/response"
)

// Handler handles organization lifecycle HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a lifecycle handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateOrganizationRequest is the body for POST /org/create.
type CreateOrganizationRequest struct {
	OrganizationName string `json:"organization_name" binding:"required,min=3,max=50"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
}

// RenameOrganizationRequest is the body for PUT /org/update.
type RenameOrganizationRequest struct {
	OrganizationName string `json:"organization_name" binding:"required"`
	NewName          string `json:"new_name" binding:"required,min=3,max=50"`
}

// Create handles POST /org/create.
func (h *Handler) Create(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	org, err := h.svc.Create(c.Request.Context(), req.OrganizationName, req.Email, req.Password)
	if err != nil {
		h.fail(c, "create organization", err)
		return
	}
	response.Created(c, org.ToSummary())
}

// Get handles GET /org/get?organization_name=.
func (h *Handler) Get(c *gin.Context) {
	name := c.Query("organization_name")
	if name == "" {
		response.BadRequest(c, "organization_name is required")
		return
	}
	org, err := h.svc.Get(c.Request.Context(), name)
	if err != nil {
		h.fail(c, "get organization", err)
		return
	}
	response.OK(c, org.ToSummary())
}

// Delete handles DELETE /org/delete?organization_name=. Requires a bearer token.
func (h *Handler) Delete(c *gin.Context) {
	name := c.Query("organization_name")
	if name == "" {
		response.BadRequest(c, "organization_name is required")
		return
	}
	adminEmail := c.MustGet(middleware.ContextAdminEmail).(string)
	if err := h.svc.Delete(c.Request.Context(), name, adminEmail); err != nil {
		h.fail(c, "delete organization", err)
		return
	}
	response.NoContent(c)
}

// Rename handles PUT /org/update. Requires a bearer token. Updates directory
// metadata only; moving tenant data is the operator-run migration tool.
func (h *Handler) Rename(c *gin.Context) {
	var req RenameOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	adminEmail := c.MustGet(middleware.ContextAdminEmail).(string)
	org, err := h.svc.Rename(c.Request.Context(), req.OrganizationName, req.NewName, adminEmail)
	if err != nil {
		h.fail(c, "rename organization", err)
		return
	}
	response.OK(c, org.ToSummary())
}

// fail maps service errors to HTTP responses.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		var dep *DependencyError
		if errors.As(err, &dep) && len(dep.Compensation) > 0 {
			h.logger.Error("inconsistent directory state, manual intervention required",
				zap.String("op", op), zap.Error(err))
		} else {
			h.logger.Error(op+" failed", zap.Error(err))
		}
		response.Internal(c, "failed to "+op)
	}
}
