package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"resume-tailor/internal/shared/telemetry"
)

const defaultRetryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base       Client
	maxRetries int
	baseDelay  time.Duration
}

// NewRetrying wraps base with up to maxRetries extra attempts on transient
// failures, doubling the delay each time. maxRetries <= 0 returns base as is.
func NewRetrying(base Client, maxRetries int, baseDelay time.Duration) Client {
	if base == nil || maxRetries <= 0 {
		return base
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	return retryingClient{base: base, maxRetries: maxRetries, baseDelay: baseDelay}
}

func (r retryingClient) Complete(ctx context.Context, req Request) (Completion, error) {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		resp, err := r.base.Complete(ctx, req)
		if err == nil || attempt >= r.maxRetries || ctx.Err() != nil || !IsTransient(err) {
			return resp, err
		}

		telemetry.Warn("llm.retry", map[string]any{
			"attempt":  attempt + 1,
			"delay_ms": delay.Milliseconds(),
			"err":      err.Error(),
		})
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Completion{}, ctx.Err()
		}
		delay *= 2
	}
}

// IsTransient reports whether err is worth retrying: timeouts, dropped
// connections, rate limiting and 5xx answers.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode == http.StatusTooManyRequests || upstream.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.HasSuffix(msg, "eof")
}
