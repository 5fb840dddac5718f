package middlewares

import (
	"net/http"
	"strings"

	"nutriscan/utils"

	"github.com/gin-gonic/gin"
)

const ContextUserID = "userID"

// OptionalAuth sets "userID" when a valid bearer token is present. Requests
// without an Authorization header pass through anonymously; a bad token is 401.
// With no secret configured every request is anonymous and headers are ignored.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || secret == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
			return
		}

		userID, err := utils.ParseUserID(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// RequireUser rejects requests that OptionalAuth left anonymous.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		c.Next()
	}
}
