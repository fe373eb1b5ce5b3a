package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
)

// TavilyURL is the Tavily search endpoint
const TavilyURL = "https://api.tavily.com/search"

// TavilySource tags snippets from Tavily
const TavilySource = "web:tavily"

// Tavily queries the Tavily search API
type Tavily struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	userAgent string
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results,omitempty"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewTavily creates a Tavily provider. The API key is required.
func NewTavily(client *http.Client, endpoint, apiKey, userAgent string) (*Tavily, error) {
	if apiKey == "" {
		return nil, fault.Missing("TAVILY_API_KEY")
	}
	if endpoint == "" {
		endpoint = TavilyURL
	}
	return &Tavily{
		client:    client,
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
	}, nil
}

// Name returns the provider name
func (t *Tavily) Name() string {
	return "tavily"
}

// Endpoint returns the API URL
func (t *Tavily) Endpoint() string {
	return t.endpoint
}

// Search runs one query. The generated answer, when present, is the abstract.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) (*Result, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:         query,
		MaxResults:    maxResults,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	body, err := do(t.client, t.Name(), req)
	if err != nil {
		return nil, err
	}

	var data tavilyResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &fault.ServiceError{Service: t.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &Result{}
	if data.Answer != "" {
		result.Abstract = &model.EvidenceSnippet{
			Source:  TavilySource,
			Snippet: data.Answer,
		}
	}
	for _, r := range data.Results {
		result.Related = append(result.Related, model.EvidenceSnippet{
			Source:  TavilySource,
			URL:     model.StringPtr(r.URL),
			Title:   model.StringPtr(r.Title),
			Snippet: r.Content,
		})
	}

	return result, nil
}
