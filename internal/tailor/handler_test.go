package tailor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/storage/spool"
	"resume-tailor/internal/shared/telemetry"
)

type mockTailorer struct {
	mock.Mock
}

func (m *mockTailorer) Tailor(ctx context.Context, in Input) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, files []upload, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newTestRouter(t *testing.T, svc Tailorer, maxUploadBytes int64) (*gin.Engine, *spool.Store) {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(nil) })

	store, err := spool.New(t.TempDir())
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	NewHandler(svc, store, maxUploadBytes).RegisterRoutes(r.Group("/api"))
	return r, store
}

func doTailor(r http.Handler, body io.Reader, contentType, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/tailor-resume", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key != "" {
		req.Header.Set(middleware.APIKeyHeader, key)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func assertSpoolEmpty(t *testing.T, store *spool.Store) {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTailorSuccessPassesFormFields(t *testing.T) {
	svc := new(mockTailorer)
	r, store := newTestRouter(t, svc, 0)

	svc.On("Tailor", mock.Anything, mock.MatchedBy(func(in Input) bool {
		if in.APIKey != "sk-test" || in.Resume == nil || in.JobDesc != nil {
			return false
		}
		data, err := os.ReadFile(in.Resume.Path)
		return err == nil &&
			string(data) == "John Doe" &&
			in.Resume.OriginalName == "resume.txt" &&
			in.JobDescText == "Backend role" &&
			in.RefinePrompt == "Be brief"
	})).Return("- A\n- B\n- C", nil).Once()

	body, ct := multipartBody(t,
		[]upload{{field: "resume", name: "resume.txt", content: "John Doe"}},
		map[string]string{"jdText": "Backend role", "refinePrompt": "Be brief"},
	)
	resp := doTailor(r, body, ct, "sk-test")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, map[string]string{"tailored": "- A\n- B\n- C"}, decodeBody(t, resp))
	svc.AssertExpectations(t)
	assertSpoolEmpty(t, store)
}

func TestTailorJobDescriptionFileIsSpooled(t *testing.T) {
	svc := new(mockTailorer)
	r, store := newTestRouter(t, svc, 0)

	svc.On("Tailor", mock.Anything, mock.MatchedBy(func(in Input) bool {
		return in.JobDesc != nil && in.JobDesc.OriginalName == "jd.txt" && in.JobDesc.SizeBytes == 8
	})).Return("- ok", nil).Once()

	body, ct := multipartBody(t, []upload{
		{field: "resume", name: "resume.txt", content: "resume"},
		{field: "jobdesc", name: "jd.txt", content: "from jd!"},
	}, nil)
	resp := doTailor(r, body, ct, "sk-test")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	svc.AssertExpectations(t)
	assertSpoolEmpty(t, store)
}

func TestTailorMissingKeyRejectedBeforeForm(t *testing.T) {
	svc := new(mockTailorer)
	r, store := newTestRouter(t, svc, 0)

	body, ct := multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: "x"}}, map[string]string{"jdText": "jd"})
	resp := doTailor(r, body, ct, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, MsgMissingAPIKey, decodeBody(t, resp)["error"])
	svc.AssertNotCalled(t, "Tailor", mock.Anything, mock.Anything)
	assertSpoolEmpty(t, store)
}

func TestTailorMissingResume(t *testing.T) {
	svc := new(mockTailorer)
	r, _ := newTestRouter(t, svc, 0)

	body, ct := multipartBody(t, nil, map[string]string{"jdText": "jd"})
	resp := doTailor(r, body, ct, "sk-test")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, MsgNoResume, decodeBody(t, resp)["error"])
	svc.AssertNotCalled(t, "Tailor", mock.Anything, mock.Anything)
}

func TestTailorNonMultipartBodyTreatedAsMissingResume(t *testing.T) {
	svc := new(mockTailorer)
	r, _ := newTestRouter(t, svc, 0)

	resp := doTailor(r, bytes.NewBufferString(`{"resume":"x"}`), "application/json", "sk-test")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, MsgNoResume, decodeBody(t, resp)["error"])
}

func TestTailorServiceErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "no job description", err: ErrNoJobDescription, wantStatus: http.StatusBadRequest, wantMsg: MsgNoJobDescription},
		{name: "unsupported", err: &extract.UnsupportedFormatError{Ext: ".xyz"}, wantStatus: http.StatusBadRequest, wantMsg: "Unsupported file type: .xyz"},
		{name: "upstream", err: &llm.UpstreamError{StatusCode: 429, Message: "rate limited"}, wantStatus: http.StatusInternalServerError, wantMsg: "rate limited"},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMsg: "boom"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockTailorer)
			r, store := newTestRouter(t, svc, 0)
			svc.On("Tailor", mock.Anything, mock.Anything).Return("", tt.err).Once()

			body, ct := multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: "x"}}, nil)
			resp := doTailor(r, body, ct, "sk-test")

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, map[string]string{"error": tt.wantMsg}, decodeBody(t, resp))
			assertSpoolEmpty(t, store)
		})
	}
}

func TestTailorUploadTooLarge(t *testing.T) {
	svc := new(mockTailorer)
	r, store := newTestRouter(t, svc, 64)

	big := bytes.Repeat([]byte("a"), 4096)
	body, ct := multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: string(big)}}, nil)
	resp := doTailor(r, body, ct, "sk-test")

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Equal(t, MsgUploadTooLarge, decodeBody(t, resp)["error"])
	svc.AssertNotCalled(t, "Tailor", mock.Anything, mock.Anything)
	assertSpoolEmpty(t, store)
}

func metricValue(t *testing.T, series string) uint64 {
	t.Helper()
	for _, line := range strings.Split(metrics.Render(), "\n") {
		if value, ok := strings.CutPrefix(line, series+" "); ok {
			n, err := strconv.ParseUint(value, 10, 64)
			require.NoError(t, err)
			return n
		}
	}
	return 0
}

func TestTailorMetricsCountRejectedAndSuccessfulCalls(t *testing.T) {
	const (
		requests   = "tailor_requests_total"
		succeeded  = "tailor_succeeded_total"
		badRequest = `tailor_failed_total{kind="bad_request"}`
		upstream   = `tailor_failed_total{kind="upstream"}`
	)
	svc := new(mockTailorer)
	r, _ := newTestRouter(t, svc, 0)
	svc.On("Tailor", mock.Anything, mock.Anything).Return("- ok", nil).Once()
	svc.On("Tailor", mock.Anything, mock.Anything).Return("", &llm.UpstreamError{StatusCode: 502, Message: "bad gateway"}).Once()

	reqBefore, okBefore := metricValue(t, requests), metricValue(t, succeeded)
	badBefore, upBefore := metricValue(t, badRequest), metricValue(t, upstream)

	body, ct := multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: "x"}}, map[string]string{"jdText": "jd"})
	resp := doTailor(r, body, ct, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	body, ct = multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: "x"}}, map[string]string{"jdText": "jd"})
	resp = doTailor(r, body, ct, "sk-test")
	require.Equal(t, http.StatusOK, resp.Code)

	body, ct = multipartBody(t, []upload{{field: "resume", name: "resume.txt", content: "x"}}, map[string]string{"jdText": "jd"})
	resp = doTailor(r, body, ct, "sk-test")
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	assert.Equal(t, reqBefore+3, metricValue(t, requests))
	assert.Equal(t, okBefore+1, metricValue(t, succeeded))
	assert.Equal(t, badBefore+1, metricValue(t, badRequest))
	assert.Equal(t, upBefore+1, metricValue(t, upstream))
}
