package llm

import (
	"context"
	"sync"
)

// MockGenerator is a configurable mock for testing ranking functionality.
// Set GenerateFunc to control behavior in tests.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns Text and nil error.
	GenerateFunc func(ctx context.Context, prompt string) (*Response, error)

	// Text is returned when GenerateFunc is nil.
	Text string

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	mu      sync.Mutex
	prompts []string
}

var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock that replies with text.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{Text: text, ModelName: "mock-model"}
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return &Response{Text: m.Text}, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or "" if none.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockGenerator) Provider() string { return "mock" }
