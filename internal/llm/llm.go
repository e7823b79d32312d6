package llm

import "context"

// Chat roles understood by completion APIs.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged entry of a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call. APIKey is the caller's credential and
// is sent as a bearer token; it is never stored by the client.
type Request struct {
	APIKey   string
	Messages []Message
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the first choice returned by the provider.
type Completion struct {
	Content string
	Model   string
	Usage   *Usage
}

// Client abstracts chat-completion providers.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}
