package middleware

import (
	"github.com/gin-gonic/gin"

	"printforge/internal/api/errors"
)

const userIDKey = "user_id"

// UserResolver extracts the caller identity from the X-User-ID header set by
// the fronting gateway. Requests without it are rejected before any handler
// runs; the webhook and health endpoints are mounted outside this middleware.
func UserResolver() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			HandleError(c, errors.NewUnauthorizedError("missing X-User-ID header"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the resolved caller identity for the request.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
