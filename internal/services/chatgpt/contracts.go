package chatgpt

import (
	"context"
)

// Servicer defines the interface for chat completion operations
type Servicer interface {
	// Complete sends a completion request to the OpenAI API
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (*ChatResponse, error)

	// GetContent returns just the content of the first choice
	GetContent(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}

// Ensure Service implements Servicer
var _ Servicer = (*Service)(nil)
