package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
)

// HTTPProvider talks to any endpoint that accepts an OpenAI-style chat
// payload, whatever shape its reply takes
type HTTPProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	adapter    *ResponseAdapter
	config     Config
}

type chatPayload struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewHTTPProvider creates a provider for a generic chat endpoint.
// config.BaseURL is the full URL requests are posted to.
func NewHTTPProvider(config Config, adapter *ResponseAdapter) (*HTTPProvider, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fault.Missing("llm.base_url")
	}
	if adapter == nil {
		adapter = NewResponseAdapter(nil)
	}

	return &HTTPProvider{
		url:        strings.TrimSpace(config.BaseURL),
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(config),
		adapter:    adapter,
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// IsAvailable reports whether the endpoint is configured; generic endpoints
// have no standard health route
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	return p.url != ""
}

// Chat posts the prompt pair and extracts the assistant text with the adapter
func (p *HTTPProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model, temperature, maxTokens := p.config.resolve(req, "")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + p.apiKey}
	}

	body, err := postJSON(ctxWithTimeout, p.httpClient, "http", p.url, headers, chatPayload{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	text, _, err := p.adapter.Extract(body)
	if err != nil {
		return nil, &fault.MalformedResponseError{Raw: string(body)}
	}

	respModel := extractModel(body)
	if respModel == "" {
		respModel = model
	}

	return &ChatResponse{
		Text:       text,
		Model:      respModel,
		TokensUsed: extractTokens(body),
	}, nil
}
