package middleware

import (
	"errors"
	"net/http"
	"strings"

	"medilinko/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

// TokenValidator parses a bearer token into its session claims
type TokenValidator interface {
	Verify(tokenString string) (*utils.SessionClaims, error)
}

// JWTAuthMiddleware creates a middleware for JWT authentication
func JWTAuthMiddleware(sessions TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := sessions.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(AuthUserKey, claims.RecordID)
		c.Set(AuthRoleKey, claims.Role)

		c.Next()
	}
}

// AuthUserID returns the authenticated user ID set by JWTAuthMiddleware
func AuthUserID(c *gin.Context) (string, error) {
	userIDVal, exists := c.Get(AuthUserKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", errors.New("invalid user ID type in context")
	}
	return userID, nil
}

// AuthRole returns the role claim set by JWTAuthMiddleware
func AuthRole(c *gin.Context) (string, error) {
	roleVal, exists := c.Get(AuthRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleVal.(string)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
