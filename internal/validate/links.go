package validate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/util"
	"github.com/ppiankov/integrity/internal/worker"
	"go.uber.org/zap"
)

const linkCheckMaxRetries = 3

// linkSleepFunc is the sleep function used between retries (injectable for tests)
var linkSleepFunc = time.Sleep

// LinkChecker annotates evidence snippets with the reachability of their URLs.
// It never removes a snippet.
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewLinkChecker creates a link checker from the resolved configuration
func NewLinkChecker(cfg *model.Config, limiter *worker.Limiter, logger *zap.Logger) *LinkChecker {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxWorkers := cfg.Links.Workers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	timeout := cfg.Links.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	proxyFunc := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return errors.New("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  cfg.HTTP.UserAgent,
		robots:     util.NewRobotsChecker(cfg.HTTP.UserAgent, timeout, proxyFunc),
		limiter:    limiter,
		logger:     logger,
	}
}

// Check sets Link on every snippet that carries a URL, concurrently
func (c *LinkChecker) Check(ctx context.Context, snippets []model.EvidenceSnippet) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i := range snippets {
		rawURL := snippets[i].URLOrEmpty()
		if rawURL == "" {
			continue
		}

		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				snippets[idx].Link = &model.LinkStatus{Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			status := c.checkWithRetry(ctx, rawURL)
			snippets[idx].Link = &status
		}(i, rawURL)
	}

	wg.Wait()
}

// checkOne issues a HEAD request for one URL, honoring robots.txt
func (c *LinkChecker) checkOne(ctx context.Context, rawURL string) model.LinkStatus {
	var status model.LinkStatus

	allowed, _, err := c.robots.CanFetch(ctx, rawURL)
	if err != nil {
		status.Error = err.Error()
		status.Dead = true
		return status
	}
	if !allowed {
		status.Disallowed = true
		return status
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			status.Error = fmt.Sprintf("rate limit: %v", err)
			return status
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		status.Error = fmt.Sprintf("create request: %v", err)
		status.Dead = true
		return status
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		status.Dead = true
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		status.RedirectURL = final
	}

	return status
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) model.LinkStatus {
	var status model.LinkStatus
	for attempt := 0; attempt < linkCheckMaxRetries; attempt++ {
		status = c.checkOne(ctx, rawURL)
		if !isRetryable(status) {
			return status
		}
		if attempt < linkCheckMaxRetries-1 {
			c.logger.Debug("retrying link check",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Int("status", status.StatusCode))
			linkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return status
}

// isRetryable returns true for results that indicate transient failures
func isRetryable(status model.LinkStatus) bool {
	if status.StatusCode >= 500 && status.StatusCode < 600 {
		return true
	}
	if status.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if status.Error != "" {
		s := strings.ToLower(status.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
