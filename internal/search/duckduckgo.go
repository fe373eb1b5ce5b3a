package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
)

// DuckDuckGoURL is the Instant Answer API endpoint
const DuckDuckGoURL = "https://api.duckduckgo.com/"

// DuckDuckGoSource tags snippets from DuckDuckGo
const DuckDuckGoSource = "web:ddg"

// DuckDuckGo queries the DuckDuckGo Instant Answer API
type DuckDuckGo struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	Abstract      string     `json:"Abstract"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// ddgTopic is either a single topic (Text, FirstURL) or a named group of topics
type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty endpoint uses DuckDuckGoURL.
func NewDuckDuckGo(client *http.Client, endpoint, userAgent string) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DuckDuckGoURL
	}
	return &DuckDuckGo{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
	}
}

// Name returns the provider name
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Endpoint returns the API URL
func (d *DuckDuckGo) Endpoint() string {
	return d.endpoint
}

// Search issues one Instant Answer query with the claim text verbatim
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) (*Result, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, &fault.ConfigurationError{Setting: "search.base_url", Reason: err.Error()}
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_redirect", "1")
	params.Set("no_html", "1")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	body, err := do(d.client, d.Name(), req)
	if err != nil {
		return nil, err
	}

	var data ddgResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &fault.ServiceError{Service: d.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	result := &Result{}
	if data.Abstract != "" {
		result.Abstract = &model.EvidenceSnippet{
			Source:  DuckDuckGoSource,
			URL:     model.StringPtr(data.AbstractURL),
			Title:   model.StringPtr(data.Heading),
			Snippet: data.Abstract,
		}
	}

	// Topic groups carry no text of their own and surface as empty items
	for _, topic := range data.RelatedTopics {
		result.Related = append(result.Related, model.EvidenceSnippet{
			Source:  DuckDuckGoSource,
			URL:     model.StringPtr(topic.FirstURL),
			Title:   model.StringPtr(topic.FirstURL),
			Snippet: topic.Text,
		})
	}

	return result, nil
}
