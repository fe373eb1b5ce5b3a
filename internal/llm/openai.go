package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/util"
	"github.com/sashabaranov/go-openai"
)

// Base URLs of OpenAI-compatible hosted endpoints
const (
	GroqBaseURL = "https://api.groq.com/openai/v1"
	XAIBaseURL  = "https://api.x.ai/v1"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible chat completion endpoints (Groq, xAI)
type OpenAIProvider struct {
	name         string
	client       *openai.Client
	config       Config
	defaultModel string
}

// NewOpenAIProvider creates a provider for api.openai.com
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	return newOpenAICompatible("openai", config, "", openai.GPT4oMini)
}

// NewGroqProvider creates a provider for Groq's OpenAI-compatible endpoint
func NewGroqProvider(config Config) (*OpenAIProvider, error) {
	return newOpenAICompatible("groq", config, GroqBaseURL, "llama-3.3-70b-versatile")
}

// NewXAIProvider creates a provider for xAI's OpenAI-compatible endpoint
func NewXAIProvider(config Config) (*OpenAIProvider, error) {
	return newOpenAICompatible("xai", config, XAIBaseURL, "grok-2-latest")
}

func newOpenAICompatible(name string, config Config, defaultBaseURL, defaultModel string) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, &fault.ConfigurationError{Setting: name + " api key", Reason: "required but not set"}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	switch {
	case config.BaseURL != "":
		clientConfig.BaseURL = trimChatCompletionsPath(config.BaseURL)
	case defaultBaseURL != "":
		clientConfig.BaseURL = defaultBaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.timeout(),
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		name:         name,
		client:       openai.NewClientWithConfig(clientConfig),
		config:       config,
		defaultModel: defaultModel,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the endpoint accepts the configured key
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Chat performs one chat completion round-trip
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model, temperature, maxTokens := p.config.resolve(req, p.defaultModel)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.User,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, &fault.ServiceError{Service: p.name, StatusCode: statusFromOpenAIError(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &fault.ServiceError{Service: p.name, Err: errors.New("response contained no choices")}
	}

	return &ChatResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// statusFromOpenAIError extracts the HTTP status carried by go-openai errors
func statusFromOpenAIError(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
