// Package llm defines a minimal Provider interface for language model
// backends used by the transcript corrector.
//
// voxtype only needs single-shot completions — no streaming, no tool calling
// — so the interface is deliberately small. Implementations must be safe for
// concurrent use.
package llm

import "context"

// Message represents a single message in a completion conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// CompletionRequest carries everything the model needs to produce a reply.
// Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation. Providers without a dedicated system field should
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation; the last message drives the reply.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// near-deterministic decoding.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the full text of the reply.
	Content string
}

// Provider is the abstraction over any completion backend.
type Provider interface {
	// Complete performs a single non-streaming completion. Returns an error
	// on transport failure, authentication failure, or ctx cancellation.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
