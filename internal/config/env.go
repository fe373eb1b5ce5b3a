// Package config resolves the immutable model.Config from defaults, an
// optional YAML file, INTEGRITY_* environment variables and provider
// credentials.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ppiankov/integrity/internal/model"
)

// Credentials are the provider secrets and endpoints read from the environment.
// GROK_* names are accepted as aliases of GROQ_* for existing deployments.
type Credentials struct {
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	GrokAPIKey      string `env:"GROK_API_KEY"`
	GroqAPIURL      string `env:"GROQ_API_URL"`
	GrokAPIURL      string `env:"GROK_API_URL"`
	XAIAPIKey       string `env:"XAI_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OllamaBaseURL   string `env:"OLLAMA_BASE_URL"`
	TavilyAPIKey    string `env:"TAVILY_API_KEY"`
}

// LoadCredentials reads provider credentials from the environment
func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return creds, nil
}

// Apply fills the selected providers' key and endpoint. Values already set
// through the config file, INTEGRITY_* variables or flags are kept.
func (c Credentials) Apply(cfg *model.Config) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "groq", "grok":
		setIfEmpty(&cfg.LLM.APIKey, c.GroqAPIKey, c.GrokAPIKey)
		setIfEmpty(&cfg.LLM.BaseURL, c.GroqAPIURL, c.GrokAPIURL)
	case "xai":
		setIfEmpty(&cfg.LLM.APIKey, c.XAIAPIKey)
	case "openai":
		setIfEmpty(&cfg.LLM.APIKey, c.OpenAIAPIKey)
	case "anthropic", "claude":
		setIfEmpty(&cfg.LLM.APIKey, c.AnthropicAPIKey)
	case "ollama":
		setIfEmpty(&cfg.LLM.BaseURL, c.OllamaBaseURL)
	}

	if strings.EqualFold(cfg.Search.Provider, "tavily") {
		setIfEmpty(&cfg.Search.APIKey, c.TavilyAPIKey)
	}
}

// setIfEmpty assigns the first non-empty candidate when *dst is empty
func setIfEmpty(dst *string, candidates ...string) {
	if *dst != "" {
		return
	}
	for _, c := range candidates {
		if c != "" {
			*dst = c
			return
		}
	}
}
