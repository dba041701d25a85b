package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider to openai, anthropic or ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
