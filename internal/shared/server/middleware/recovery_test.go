package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

func TestRecoveryReturnsJSONError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "Internal Server Error" {
		t.Fatalf("unexpected body: %v", payload)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"panic"`)) {
		t.Fatalf("expected panic log line, got %s", buf.String())
	}
}

func TestRecoveryAfterPartialWriteOnlyAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	router := gin.New()
	router.Use(Recovery())
	router.GET("/half", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/half", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected original status to stand, got %d", resp.Code)
	}
	if resp.Body.String() != "partial" {
		t.Fatalf("expected no error body appended, got %q", resp.Body.String())
	}
}
