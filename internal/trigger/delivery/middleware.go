package delivery

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecretHeader is the alternative to a bearer Authorization header for
// invokers that cannot set one.
const SecretHeader = "X-Cron-Secret"

// SecretMiddleware admits requests carrying the shared trigger secret. With
// no secret configured every request is refused.
func SecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trigger secret not configured"})
			c.Abort()
			return
		}

		provided := c.GetHeader(SecretHeader)
		if provided == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
				c.Abort()
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}
			provided = parts[1]
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid trigger secret"})
			c.Abort()
			return
		}

		c.Next()
	}
}
