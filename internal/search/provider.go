// Package search retrieves web evidence for claims.
//
// Providers turn a query into an abstract plus related items. The Retriever
// wraps a provider with caching, rate limiting and annotation, and never
// fails its caller: any provider failure degrades to zero evidence.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/util"
)

// maxResponseBytes bounds how much of a search response is read
const maxResponseBytes = 2 << 20

// Provider queries one search backend
type Provider interface {
	// Name returns the provider name used in logs and cache keys
	Name() string

	// Endpoint returns the URL requests are sent to, for rate limiting
	Endpoint() string

	// Search runs one query. maxResults is a hint; providers may return more.
	Search(ctx context.Context, query string, maxResults int) (*Result, error)
}

// Result is the provider-neutral shape of one search response
type Result struct {
	// Abstract is the optional top-level answer
	Abstract *model.EvidenceSnippet

	// Related holds the remaining items in provider order. Items may have an
	// empty Snippet; the retriever skips those.
	Related []model.EvidenceSnippet
}

// NewProvider creates the search provider named in cfg.Search.Provider
func NewProvider(cfg *model.Config) (Provider, error) {
	client := newHTTPClient(cfg)

	switch strings.ToLower(strings.TrimSpace(cfg.Search.Provider)) {
	case "duckduckgo", "ddg", "":
		return NewDuckDuckGo(client, cfg.Search.BaseURL, cfg.HTTP.UserAgent), nil

	case "tavily":
		return NewTavily(client, cfg.Search.BaseURL, cfg.Search.APIKey, cfg.HTTP.UserAgent)

	default:
		return nil, &fault.ConfigurationError{
			Setting: "search.provider",
			Reason:  "unknown provider " + cfg.Search.Provider + " (supported: duckduckgo, tavily)",
		}
	}
}

func newHTTPClient(cfg *model.Config) *http.Client {
	timeout := cfg.Search.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		},
	}
}

// do executes req and returns the body of a 2xx response
func do(client *http.Client, service string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &fault.ServiceError{Service: service, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &fault.ServiceError{Service: service, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &fault.ServiceError{Service: service, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return body, nil
}
