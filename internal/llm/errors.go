package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when a request carries no credential.
	ErrMissingAPIKey = errors.New("completion request missing api key")
	// ErrNoChoices is returned when the provider answers without choices.
	ErrNoChoices = errors.New("completion response missing choices")
)

// UpstreamError is a failure reported by the completion API itself: a non-2xx
// status or an error payload. Message holds the provider's own text.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("completion api status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion api status %d: %s", e.StatusCode, e.Message)
}

// UpstreamMessage returns the provider's message when err wraps an
// *UpstreamError that carries one.
func UpstreamMessage(err error) (string, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message, true
	}
	return "", false
}
