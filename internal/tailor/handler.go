package tailor

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/storage/spool"
	"resume-tailor/internal/shared/telemetry"
)

// Multipart field names.
const (
	fieldResume       = "resume"
	fieldJobDesc      = "jobdesc"
	fieldJDText       = "jdText"
	fieldRefinePrompt = "refinePrompt"
)

const failureKindKey = "tailorFailureKind"

// Tailorer is the service contract the handler depends on.
type Tailorer interface {
	Tailor(ctx context.Context, in Input) (string, error)
}

// Handler wires POST /tailor-resume to the service.
type Handler struct {
	svc            Tailorer
	spool          *spool.Store
	maxUploadBytes int64
}

// NewHandler constructs a Handler. maxUploadBytes <= 0 disables the body cap.
func NewHandler(svc Tailorer, store *spool.Store, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, spool: store, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the tailoring route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tailor-resume",
		instrument,
		middleware.RequireAPIKey(middleware.APIKeyHeader, MsgMissingAPIKey),
		h.tailor,
	)
}

// instrument counts every tailoring call, including ones rejected by
// middleware before the handler runs.
func instrument(c *gin.Context) {
	metrics.IncTailorRequest()
	c.Next()

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		metrics.IncTailorSucceeded()
		return
	}
	kind := c.GetString(failureKindKey)
	if kind == "" {
		kind = metrics.KindBadRequest
		if status >= http.StatusInternalServerError {
			kind = metrics.KindInternal
		}
	}
	metrics.IncTailorFailed(kind)
}

func (h *Handler) tailor(c *gin.Context) {
	ctx := c.Request.Context()

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	switch {
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		h.fail(c, ErrNoResume)
		return
	case err != nil:
		h.fail(c, err)
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			telemetry.Warn("tailor.cleanup_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"stage":      "multipart",
				"err":        err,
			})
		}
	}()

	resumeHeader := firstFile(form, fieldResume)
	if resumeHeader == nil {
		h.fail(c, ErrNoResume)
		return
	}

	// Spooled files are released on every exit path, after the response.
	var spooled []spool.File
	defer func() { h.cleanup(c, spooled) }()

	resume, err := h.spool.SaveUpload(ctx, resumeHeader)
	if err != nil {
		h.fail(c, err)
		return
	}
	spooled = append(spooled, resume)
	format, _ := extract.DetectFormat(resume.OriginalName)
	c.Set(middleware.LogResumeFormat, format.String())

	in := Input{
		APIKey:       middleware.APIKeyFromContext(c),
		Resume:       &resume,
		JobDescText:  firstValue(form, fieldJDText),
		RefinePrompt: firstValue(form, fieldRefinePrompt),
	}
	if jobHeader := firstFile(form, fieldJobDesc); jobHeader != nil {
		jobDesc, err := h.spool.SaveUpload(ctx, jobHeader)
		if err != nil {
			h.fail(c, err)
			return
		}
		spooled = append(spooled, jobDesc)
		in.JobDesc = &jobDesc
		c.Set(middleware.LogJobDescSource, "file")
	} else {
		c.Set(middleware.LogJobDescSource, "inline")
	}

	tailored, err := h.svc.Tailor(ctx, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond.OK(c, TailorResponse{Tailored: tailored})
}

func (h *Handler) fail(c *gin.Context, err error) {
	f := classify(err)
	c.Set(failureKindKey, f.kind)
	if f.kind != metrics.KindBadRequest {
		telemetry.Error("tailor.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"kind":       f.kind,
			"err":        err,
		})
	}
	respond.Error(c, f.status, f.message)
}

func (h *Handler) cleanup(c *gin.Context, files []spool.File) {
	for _, f := range files {
		if err := h.spool.Remove(f); err != nil {
			telemetry.Warn("tailor.cleanup_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"stage":      "spool",
				"path":       f.Path,
				"err":        err,
			})
		}
	}
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func firstValue(form *multipart.Form, field string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}
