package middleware

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminTokenHeader = "X-Admin-Token"

// AdminAuthRequired rejects requests that do not carry the admin token in
// the X-Admin-Token header or as a bearer token. An empty token disables
// the check.
func AdminAuthRequired(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		if !hmac.Equal([]byte(requestToken(c)), []byte(token)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authentication required",
			})
			return
		}

		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(adminTokenHeader)); t != "" {
		return t
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
