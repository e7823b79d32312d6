package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

// ErrorResponse is the single error shape returned to clients.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error logs the failure and aborts with {"error": message}.
func Error(c *gin.Context, status int, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
