// Package completion wraps a single round-trip to a hosted large-language-model
// endpoint: build the request, apply the bounded generation parameters, parse
// the reply or classify the failure.
package completion

import (
	"context"

	"evidenze-chat/chat"
)

// Params are the generation bounds for one invocation. They come from
// configuration, never from the end user.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// Usage is the token accounting reported by the endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a successful completion: the first choice's text plus usage.
type Result struct {
	Text  string
	Usage Usage
}

// Client performs one completion call. No retry, no backoff, no streaming.
type Client interface {
	// Complete sends the message sequence exactly as given (system seed,
	// prior turns, latest user turn last) and returns the generated reply.
	// Failures are always *Error.
	Complete(ctx context.Context, messages []chat.Message, params Params) (Result, error)
}
