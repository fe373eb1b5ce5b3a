package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/integrity/internal/model"
)

// Provider defines the interface for chat-capable LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat sends a system+user prompt pair and returns the raw model text
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ChatRequest contains the input for one chat round-trip
type ChatRequest struct {
	System string
	User   string

	// Model overrides the configured model (provider-specific)
	Model string

	// Temperature overrides the configured temperature when non-zero
	Temperature float32

	// MaxTokens limits the response length when non-zero
	MaxTokens int
}

// ChatResponse contains the model output
type ChatResponse struct {
	// Text is the raw assistant text, untouched
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "groq", "grok", "xai", "openai", "anthropic", "ollama", "http"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout bounds every request
	Timeout time.Duration

	Temperature float32
	MaxTokens   int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the reference defaults (Groq, 60s, temperature 0.1)
func DefaultConfig() Config {
	return Config{
		Provider:    "groq",
		Model:       "llama-3.3-70b-versatile",
		Timeout:     60 * time.Second,
		Temperature: 0.1,
		MaxTokens:   2048,
	}
}

// ConfigFromModel converts model.Config into llm.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	}
}

// timeout returns the configured timeout or the 60s reference default
func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

// resolve fills request defaults from the provider config
func (c Config) resolve(req ChatRequest, fallbackModel string) (model string, temperature float32, maxTokens int) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = fallbackModel
	}

	temperature = req.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}
	return model, temperature, maxTokens
}

// trimChatCompletionsPath turns a full chat-completions URL into a base URL.
// Endpoints are commonly configured as ".../v1/chat/completions".
func trimChatCompletionsPath(rawURL string) string {
	u := strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
	return strings.TrimSuffix(u, "/chat/completions")
}
