package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/courier-backend/internal/services"
	"github.com/chachabrian/courier-backend/pkg/utils"
)

const (
	UserIDKey    = "userId"
	RoleKey      = "role"
	SessionIDKey = "sessionId"
	ClaimsKey    = "claims"
)

func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// First try to get token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// If not found in header, try query parameter (for WebSocket)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authorization header or token query parameter required"})
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if errors.Is(err, services.ErrSessionRevoked) {
			c.JSON(401, gin.H{"error": "Session has been logged out"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(users services.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := services.RequireAdmin(c.Request.Context(), users, c.GetString(UserIDKey))
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(403, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Claims returns the token claims stored by AuthMiddleware.
func Claims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}
