package tailor

import (
	"errors"
	"net/http"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/metrics"
)

// Client-facing messages.
const (
	MsgMissingAPIKey    = "Missing OpenRouter API key"
	MsgNoResume         = "No resume file uploaded."
	MsgNoJobDescription = "No job description provided."
	MsgUploadTooLarge   = "Uploaded files are too large."
	msgInternal         = "Internal Server Error"
)

var (
	ErrNoResume         = errors.New("no resume")
	ErrNoJobDescription = errors.New("no job description")
)

// failure is the HTTP translation of an error.
type failure struct {
	status  int
	message string
	kind    string
}

// classify maps errors onto status codes. The upstream provider's own message
// wins over the Go error text for upstream failures.
func classify(err error) failure {
	var unsupported *extract.UnsupportedFormatError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return failure{http.StatusUnauthorized, MsgMissingAPIKey, metrics.KindBadRequest}
	case errors.Is(err, ErrNoResume):
		return failure{http.StatusBadRequest, MsgNoResume, metrics.KindBadRequest}
	case errors.Is(err, ErrNoJobDescription):
		return failure{http.StatusBadRequest, MsgNoJobDescription, metrics.KindBadRequest}
	case errors.As(err, &unsupported):
		return failure{http.StatusBadRequest, unsupported.Error(), metrics.KindBadRequest}
	case errors.As(err, &maxBytes):
		return failure{http.StatusRequestEntityTooLarge, MsgUploadTooLarge, metrics.KindBadRequest}
	}

	if msg, ok := llm.UpstreamMessage(err); ok {
		return failure{http.StatusInternalServerError, msg, metrics.KindUpstream}
	}
	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) || errors.Is(err, llm.ErrNoChoices) {
		return failure{http.StatusInternalServerError, err.Error(), metrics.KindUpstream}
	}
	if err == nil || err.Error() == "" {
		return failure{http.StatusInternalServerError, msgInternal, metrics.KindInternal}
	}
	return failure{http.StatusInternalServerError, err.Error(), metrics.KindInternal}
}
