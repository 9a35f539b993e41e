// Package llm is the single point of contact with the external language
// service. Every AI-dependent component depends on the Client interface
// rather than on the service itself, so the whole stack can be driven by a
// deterministic fake in tests.
package llm

import "context"

// Request is one text-generation call.
type Request struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
}

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}
