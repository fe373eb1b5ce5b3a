package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/integrity/internal/cache"
	"github.com/ppiankov/integrity/internal/extract"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/validate"
	"github.com/ppiankov/integrity/internal/worker"
	"go.uber.org/zap"
)

// relatedReserve is subtracted from maxResults to size the related-item window
const relatedReserve = 2

// Retriever fetches evidence snippets for claims. It never returns an error.
type Retriever struct {
	provider  Provider
	cache     cache.Cache
	cacheTTL  time.Duration
	limiter   *worker.Limiter
	authority *validate.AuthorityClassifier
	links     *validate.LinkChecker
	logger    *zap.Logger
}

// RetrieverOption configures a Retriever
type RetrieverOption func(*Retriever)

// WithCache stores successful lookups in c for ttl (0 = the cache default)
func WithCache(c cache.Cache, ttl time.Duration) RetrieverOption {
	return func(r *Retriever) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithLimiter throttles requests to the provider endpoint
func WithLimiter(l *worker.Limiter) RetrieverOption {
	return func(r *Retriever) { r.limiter = l }
}

// WithAuthority annotates snippets with their source authority tier
func WithAuthority(a *validate.AuthorityClassifier) RetrieverOption {
	return func(r *Retriever) { r.authority = a }
}

// WithLinkChecker annotates snippets with the reachability of their URLs
func WithLinkChecker(c *validate.LinkChecker) RetrieverOption {
	return func(r *Retriever) { r.links = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever around provider
func NewRetriever(provider Provider, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// NewRetrieverFromConfig wires a retriever with every enrichment cfg enables
func NewRetrieverFromConfig(cfg *model.Config, logger *zap.Logger) (*Retriever, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	opts := []RetrieverOption{
		WithLogger(logger),
		WithLimiter(limiter),
		WithAuthority(validate.NewAuthorityClassifier(&cfg.Authority)),
	}
	if c := cache.FromConfig(cfg.Cache); c != nil {
		opts = append(opts, WithCache(c, cfg.Cache.MemoryTTL))
	}
	if cfg.Links.Enabled {
		opts = append(opts, WithLinkChecker(validate.NewLinkChecker(cfg, limiter, logger)))
	}

	return NewRetriever(provider, opts...), nil
}

// Retrieve returns up to one abstract plus maxResults-2 related snippets for
// claimText, in provider order. Failures degrade to an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, claimText string, maxResults int) []model.EvidenceSnippet {
	key := cache.EvidenceKey(r.provider.Name(), claimText, maxResults)

	snippets, ok := r.cached(key)
	if !ok {
		var err error
		snippets, err = r.lookup(ctx, claimText, maxResults)
		if err != nil {
			r.logger.Warn("evidence search failed, continuing without evidence",
				zap.String("provider", r.provider.Name()),
				zap.String("claim", claimText),
				zap.Error(err))
			return []model.EvidenceSnippet{}
		}
		r.store(key, snippets)
	}

	if r.links != nil && len(snippets) > 0 {
		r.links.Check(ctx, snippets)
	}

	return snippets
}

// lookup queries the provider and shapes the result into snippets
func (r *Retriever) lookup(ctx context.Context, claimText string, maxResults int) ([]model.EvidenceSnippet, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, r.provider.Endpoint()); err != nil {
			return nil, err
		}
	}

	result, err := r.provider.Search(ctx, claimText, maxResults)
	if err != nil {
		return nil, err
	}

	snippets := []model.EvidenceSnippet{}
	if result.Abstract != nil {
		if s, ok := normalize(*result.Abstract); ok {
			snippets = append(snippets, s)
		}
	}

	window := maxResults - relatedReserve
	if window > len(result.Related) {
		window = len(result.Related)
	}
	// The window is applied before empty items are skipped
	for i := 0; i < window; i++ {
		if s, ok := normalize(result.Related[i]); ok {
			snippets = append(snippets, s)
		}
	}

	if r.authority != nil {
		r.authority.Annotate(snippets)
	}

	return snippets, nil
}

// normalize strips markup from the snippet text; empty snippets are rejected.
// Titles are left alone since some providers put URLs there.
func normalize(s model.EvidenceSnippet) (model.EvidenceSnippet, bool) {
	s.Snippet = extract.PlainText(s.Snippet)
	return s, s.Snippet != ""
}

func (r *Retriever) cached(key string) ([]model.EvidenceSnippet, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	var snippets []model.EvidenceSnippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		_ = r.cache.Delete(key)
		return nil, false
	}
	if snippets == nil {
		snippets = []model.EvidenceSnippet{}
	}
	return snippets, true
}

func (r *Retriever) store(key string, snippets []model.EvidenceSnippet) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(snippets)
	if err != nil {
		return
	}
	if err := r.cache.Set(key, data, r.cacheTTL); err != nil {
		r.logger.Debug("evidence cache write failed", zap.Error(err))
	}
}
