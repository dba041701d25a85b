package llm

import (
	"context"

	"github.com/pagewarden/pagewarden/internal/model"
)

// Provider defines the interface for LLM auditor backends. The audit layer
// treats every response as untrusted text to be extracted and healed; a
// provider's only job is transport.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends one prompt and returns the raw text response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and
	// accessible.
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion call.
type CompletionRequest struct {
	// System is the role instruction (auditor or filter agent).
	System string

	// Prompt is the serialized payload for this call.
	Prompt string

	// Model overrides the configured model (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls sampling; audit calls run low.
	Temperature float32
}

// CompletionResponse contains the raw model output.
type CompletionResponse struct {
	// Text is the raw response body, possibly fenced markdown around JSON.
	Text string

	// Model is the model that generated the response.
	Model string

	// TokensUsed tracks token consumption.
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama".
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for OpenAI/Anthropic.
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies).
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens for response generation.
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   300,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig, callTimeoutSeconds int) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   callTimeoutSeconds,
		MaxTokens: mc.MaxTokens,
	}
}
