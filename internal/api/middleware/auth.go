package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ideahub/internal/devserver"
	"github.com/d60-Lab/ideahub/pkg/response"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(auth *devserver.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing or invalid token")
			return
		}
		userID, err := auth.Parse(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserID returns the id set by RequireAuth.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}
