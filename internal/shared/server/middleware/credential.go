package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

const apiKeyKey = "apiKey"

// APIKeyHeader carries the caller's completion API credential.
const APIKeyHeader = "x-openai-key"

// RequireAPIKey rejects requests without a credential in header and stores it
// in the gin context for handlers. The key itself is never logged.
func RequireAPIKey(header, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(header))
		if key == "" {
			respond.Error(c, http.StatusUnauthorized, message)
			return
		}
		c.Set(apiKeyKey, key)
		c.Next()
	}
}

// APIKeyFromContext returns the credential stored by RequireAPIKey.
func APIKeyFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(apiKeyKey)
}
