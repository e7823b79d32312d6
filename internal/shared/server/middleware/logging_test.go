package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/api/tailor-resume", func(c *gin.Context) {
		c.Set(LogResumeFormat, "pdf")
		c.Set(LogJobDescSource, "inline")
		c.JSON(http.StatusOK, gin.H{"tailored": "- a"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tailor-resume", nil)
	req.Header.Set("X-Request-Id", "req-123")
	req.Header.Set(APIKeyHeader, "sk-secret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "method", "path", "status", "duration_ms", "resume_format", "jobdesc_source"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["resume_format"] != "pdf" {
		t.Fatalf("unexpected resume_format: %v", payload["resume_format"])
	}
	if strings.Contains(buf.String(), "sk-secret") {
		t.Fatalf("credential leaked into logs")
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	id := resp.Header().Get("X-Request-Id")
	if len(id) != 36 {
		t.Fatalf("expected uuid request id, got %q", id)
	}
	if resp.Body.String() != id {
		t.Fatalf("context id %q does not match header %q", resp.Body.String(), id)
	}
}
