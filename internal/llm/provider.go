package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for chat model backends. Implementations
// always request JSON-mode output; callers still defend against models that
// wrap the JSON in prose.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one system+user exchange and returns the raw reply
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one model call.
type GenerateRequest struct {
	// System is the system prompt establishing the task
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model for this call
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Generation is the raw model reply plus whatever accounting the backend
// reports.
type Generation struct {
	Content    string
	Model      string
	CreatedAt  time.Time
	TokensUsed int
	Duration   time.Duration
}

// BackendError wraps a provider failure with enough context to tell a dead
// service apart from a bad request.
type BackendError struct {
	Provider string
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
