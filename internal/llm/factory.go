package llm

import (
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "groq", "grok", "":
		// The reference deployment talks to Groq, and "grok" is accepted as its historical alias
		return NewGroqProvider(config)

	case "xai":
		return NewXAIProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "http":
		return NewHTTPProvider(config, nil)

	default:
		return nil, &fault.ConfigurationError{
			Setting: "llm.provider",
			Reason:  "unknown provider " + config.Provider + " (supported: groq, xai, openai, anthropic, ollama, http)",
		}
	}
}
