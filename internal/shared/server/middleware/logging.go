package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	LogResumeFormat  = "resumeFormat"
	LogJobDescSource = "jobDescSource"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if v := c.GetString(LogResumeFormat); v != "" {
			fields["resume_format"] = v
		}
		if v := c.GetString(LogJobDescSource); v != "" {
			fields["jobdesc_source"] = v
		}
		telemetry.Info("request.complete", fields)
	}
}
