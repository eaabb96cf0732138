package tts

import (
	"context"
)

// Synthesizer defines the interface for speech synthesis operations
type Synthesizer interface {
	// Synthesize renders the request into audio bytes
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Ensure Service implements Synthesizer
var _ Synthesizer = (*Service)(nil)
