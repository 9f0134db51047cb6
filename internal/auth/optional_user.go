package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderIdentity builds the identity from X-User-Id, X-User-Role and
// X-Project-Id headers without verifying anything.
// Use this ONLY for development/testing.
func HeaderIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Id header"})
			return
		}

		SetIdentity(c, Identity{
			UserID:    uid,
			Role:      NormalizeRole(c.GetHeader("X-User-Role")),
			ProjectID: strings.TrimSpace(c.GetHeader("X-Project-Id")),
		})
		c.Next()
	}
}
