// Package llm provides generative-model clients used to rank colleges.
package llm

import (
	"context"
)

// Response is the text output of one generation call.
type Response struct {
	Text         string // first text block of the reply
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Generator sends a single-turn prompt to a generative model.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// Generate returns the model's reply to prompt. Provider failures are
	// returned as *Error; context expiry is returned unclassified.
	Generate(ctx context.Context, prompt string) (*Response, error)

	// Model returns the configured model id.
	Model() string

	// Provider returns the provider name ("anthropic", "openai").
	Provider() string
}
