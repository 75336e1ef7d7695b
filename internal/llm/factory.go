package llm

import (
	"fmt"
	"strings"

	"github.com/ndquoc/grounder/internal/model"
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name disables model calls (nil provider).
func NewProvider(config model.LLMConfig) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "ollama":
		return NewOllamaProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: ollama, openai)", config.Provider)
	}
}
