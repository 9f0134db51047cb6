package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/users"
)

// TokenVerifier is satisfied by *fbauth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// MembershipStore resolves role and project for users whose token carries
// no custom claims. *users.Repo satisfies it.
type MembershipStore interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (users.Membership, error)
}

// FirebaseAuthMiddleware validates Firebase ID tokens and builds the
// request identity. Custom claims "role" and "projectId" win over the
// users table.
func FirebaseAuthMiddleware(verifier TokenVerifier, members MembershipStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		ctx := c.Request.Context()
		decoded, err := verifier.VerifyIDToken(ctx, token)
		if err != nil {
			logging.FromContext(ctx).Warn("token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id := auth.Identity{UserID: decoded.UID}
		if role, ok := decoded.Claims["role"].(string); ok {
			id.Role = auth.NormalizeRole(role)
		}
		if pid, ok := decoded.Claims["projectId"].(string); ok {
			id.ProjectID = strings.TrimSpace(pid)
		}

		if (id.Role == "" || id.ProjectID == "") && members != nil {
			email, _ := decoded.Claims["email"].(string)
			name, _ := decoded.Claims["name"].(string)
			m, err := members.EnsureUser(ctx, users.UpsertUser{
				FirebaseUID: decoded.UID,
				Email:       email,
				DisplayName: name,
			})
			if err != nil {
				logging.FromContext(ctx).Error("ensure user failed", "uid", decoded.UID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
				return
			}
			if id.Role == "" {
				id.Role = auth.NormalizeRole(m.Role)
			}
			if id.ProjectID == "" {
				id.ProjectID = m.ProjectID
			}
		}
		if id.Role == "" {
			id.Role = auth.RoleUser
		}

		auth.SetIdentity(c, id)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
