package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orgvault/backend/internal/models"
	"github.com/orgvault/backend/pkg/response"
	"github.com/orgvault/backend/pkg/utils"
)

// AdminFinder looks up admin credentials; *directory.Repository satisfies it.
type AdminFinder interface {
	AdminByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with a bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Handler handles admin auth HTTP endpoints.
type Handler struct {
	admins AdminFinder
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(admins AdminFinder, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{admins: admins, jwt: jwt, logger: logger}
}

// Login handles POST /admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	admin, err := h.admins.AdminByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("admin lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if admin == nil || !utils.CheckPassword(req.Password, admin.PasswordHash) {
		response.Unauthorized(c, "incorrect email or password")
		return
	}

	token, err := h.jwt.Generate(admin.Email)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}

	response.OK(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
