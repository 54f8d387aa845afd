package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medsim/helpers"
)

// Authenticate validates the bearer token and stores the claims in the
// request context for downstream handlers.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := helpers.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
