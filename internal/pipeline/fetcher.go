package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/integrity/internal/extract"
	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/util"
)

const (
	fetchMaxRetries = 3
	fetchMaxBytes   = 5 << 20
)

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Fetcher loads the text of a web page to verify
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a fetcher using the shared HTTP settings
func NewFetcher(cfg *model.Config) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Search.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return errors.New("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  fetchMaxBytes,
	}
}

// FetchText downloads rawURL and returns its visible text
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return extract.PlainText(body), nil
}

// FetchWithRetry fetches rawURL, retrying 5xx, 429 and connection errors with backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(attempt) * time.Second)
		}

		body, err := f.fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &fault.ServiceError{Service: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &fault.ServiceError{Service: "fetch", StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// isRetryableFetchError reports whether a fetch failure is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var svc *fault.ServiceError
	if !errors.As(err, &svc) {
		return false
	}
	if svc.StatusCode != 0 {
		return svc.StatusCode >= 500 || svc.StatusCode == http.StatusTooManyRequests
	}
	msg := svc.Err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout")
}
