package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Client is the black-box text-completion collaborator. Implementations
// must honor the caller's context deadline; provider-side failures surface
// as errors, never panics.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
