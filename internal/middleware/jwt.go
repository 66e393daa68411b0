package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orgvault/backend/internal/auth"
	"github.com/orgvault/backend/pkg/response"
)

const (
	// ContextAdminEmail is the key for the authenticated admin email in gin context.
	ContextAdminEmail = "admin_email"
)

// JWT returns a middleware that validates the bearer token and sets the admin
// email in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		email, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextAdminEmail, email)
		c.Next()
	}
}
