package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/telemetry"
)

// DefaultAPIURL is the OpenRouter chat completions endpoint.
const DefaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"

const defaultTimeout = 120 * time.Second

// Options configures a Client.
type Options struct {
	APIURL      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	// AppURL and AppTitle are sent as HTTP-Referer and X-Title when set.
	AppURL     string
	AppTitle   string
	HTTPClient *http.Client
}

// Client implements llm.Client against an OpenAI-compatible chat completions
// endpoint. The credential comes with every request.
type Client struct {
	apiURL      string
	model       string
	temperature float32
	appURL      string
	appTitle    string
	httpClient  *http.Client
}

// NewClient constructs a chat completions client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	apiURL := strings.TrimSpace(opts.APIURL)
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiURL:      apiURL,
		model:       opts.Model,
		temperature: opts.Temperature,
		appURL:      opts.AppURL,
		appTitle:    opts.AppTitle,
		httpClient:  httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// Complete sends one chat completion and returns the first choice.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return llm.Completion{}, llm.ErrMissingAPIKey
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		Temperature: c.temperature,
	}
	for _, m := range req.Messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Completion{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.appURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appTitle != "" {
		httpReq.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, fmt.Errorf("completion request timeout: %w", err)
		}
		return llm.Completion{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("completion response read: %w", err)
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= http.StatusBadRequest {
		return llm.Completion{}, &llm.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(parsed.Error, body, resp.StatusCode),
		}
	}
	if parseErr != nil {
		return llm.Completion{}, fmt.Errorf("completion response parse: %w", parseErr)
	}
	if hasError(parsed.Error) {
		return llm.Completion{}, &llm.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(parsed.Error, body, resp.StatusCode),
		}
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, llm.ErrNoChoices
	}

	out := llm.Completion{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
	}
	if parsed.Usage != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	logUsage(c.model, out)
	return out, nil
}

func hasError(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// upstreamMessage prefers the provider's error payload: a bare string, or an
// object's "message". Otherwise the raw body or the status text is used.
func upstreamMessage(raw json.RawMessage, body []byte, status int) string {
	if hasError(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		return string(bytes.TrimSpace(raw))
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}

func logUsage(model string, c llm.Completion) {
	fields := map[string]any{"model": model}
	if c.Model != "" {
		fields["served_model"] = c.Model
	}
	if c.Usage != nil {
		fields["prompt_tokens"] = c.Usage.PromptTokens
		fields["completion_tokens"] = c.Usage.CompletionTokens
		fields["total_tokens"] = c.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
