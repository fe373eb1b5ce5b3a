// Package pipeline runs one verification: extract claims, then retrieve,
// verify and aggregate each claim, then summarize.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ppiankov/integrity/internal/extract"
	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/llm"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/score"
	"github.com/ppiankov/integrity/internal/search"
	"github.com/ppiankov/integrity/internal/verify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/ppiankov/integrity/internal/pipeline"

// ClaimExtractor splits text into claims
type ClaimExtractor interface {
	Extract(ctx context.Context, text, language string) ([]model.Claim, error)
}

// EvidenceRetriever finds evidence for one claim. It never fails.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, claimText string, maxResults int) []model.EvidenceSnippet
}

// ClaimVerifier judges one claim against its evidence
type ClaimVerifier interface {
	Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceSnippet, language string) (*model.ClaimVerification, error)
}

// Summarizer writes the overall summary of a run
type Summarizer interface {
	Summarize(ctx context.Context, verdicts []model.ClaimVerdict, language string) (string, error)
}

// Pipeline orchestrates the complete verification process
type Pipeline struct {
	extractor  ClaimExtractor
	retriever  EvidenceRetriever
	verifier   ClaimVerifier
	summarizer Summarizer
	policy     score.Policy
	config     *model.Config
	observer   StageObserver
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithObserver reports every stage transition to o
func WithObserver(o StageObserver) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the pipeline logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPolicy overrides the verdict policy named in the configuration
func WithPolicy(policy score.Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// New assembles a pipeline from its stages
func New(cfg *model.Config, extractor ClaimExtractor, retriever EvidenceRetriever, verifier ClaimVerifier, summarizer Summarizer, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	p := &Pipeline{
		extractor:  extractor,
		retriever:  retriever,
		verifier:   verifier,
		summarizer: summarizer,
		config:     cfg,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.policy == nil {
		policy, err := score.PolicyByName(cfg.Pipeline.Policy)
		if err != nil {
			return nil, err
		}
		p.policy = policy
	}

	return p, nil
}

// NewFromConfig builds the LLM provider, search provider and every stage from cfg.
// Missing credentials fail here, before any outbound call.
func NewFromConfig(cfg *model.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	retriever, err := search.NewRetrieverFromConfig(cfg, logger.Named("search"))
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}

	return New(cfg,
		extract.NewClaimExtractor(provider, logger.Named("extract")),
		retriever,
		verify.NewVerifier(provider, logger.Named("verify")),
		llm.NewSummarizer(provider),
		append([]Option{WithLogger(logger)}, opts...)...,
	)
}

// PolicyVersion returns the verdict policy recorded on every run
func (p *Pipeline) PolicyVersion() string {
	return p.policy.Version()
}

// Run verifies one text. On failure no partial run is returned.
func (p *Pipeline) Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	if err := p.validate(req.Text); err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = p.config.Pipeline.DefaultLanguage
	}
	if language == "" {
		language = "en"
	}

	run := &model.VerificationRun{
		JobID:         newID("job"),
		RunID:         newID("run"),
		CreatedAt:     model.FormatCreatedAt(p.now()),
		UserID:        req.UserID,
		Language:      language,
		PolicyVersion: p.policy.Version(),
		OriginalText:  req.Text,
		Claims:        []model.Claim{},
		Verifications: []model.ClaimVerdict{},
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("job_id", run.JobID),
		attribute.String("run_id", run.RunID),
		attribute.String("language", language),
		attribute.String("policy_version", run.PolicyVersion),
	))
	defer span.End()

	logger := p.logger.With(zap.String("job_id", run.JobID), zap.String("run_id", run.RunID))
	p.enter(logger, run, StageReceived)

	if err := p.execute(ctx, logger, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.enter(logger, run, StageFailed)
		logger.Error("verification failed", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("claims", len(run.Claims)))
	p.enter(logger, run, StageDone)
	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, logger *zap.Logger, run *model.VerificationRun) error {
	// 1. Extract claims
	p.enter(logger, run, StageExtracting)
	claims, err := p.extractClaims(ctx, run)
	if err != nil {
		return err
	}

	// 2. Nothing checkable: skip retrieval, verification and summary
	if len(claims) == 0 {
		p.enter(logger, run, StageNoClaims)
		run.OverallSummary = model.NoClaimsSummary
		return nil
	}
	run.Claims = claims

	// 3. Retrieve, verify and aggregate each claim
	p.enter(logger, run, StagePerClaimLoop)
	verdicts, err := p.processClaims(ctx, logger, claims, run.Language)
	if err != nil {
		return err
	}
	run.Verifications = verdicts

	// 4. Summarize
	p.enter(logger, run, StageSummarizing)
	ctx, span := p.tracer.Start(ctx, "pipeline.summarize")
	defer span.End()
	summary, err := p.summarizer.Summarize(ctx, verdicts, run.Language)
	if err != nil {
		return err
	}
	run.OverallSummary = summary
	return nil
}

func (p *Pipeline) extractClaims(ctx context.Context, run *model.VerificationRun) ([]model.Claim, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	claims, err := p.extractor.Extract(ctx, run.OriginalText, run.Language)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("claims", len(claims)))
	return claims, nil
}

// processClaims returns one verdict per claim, in claim order.
// With one worker claims are handled strictly in sequence.
func (p *Pipeline) processClaims(ctx context.Context, logger *zap.Logger, claims []model.Claim, language string) ([]model.ClaimVerdict, error) {
	verdicts := make([]model.ClaimVerdict, len(claims))

	workers := p.config.Pipeline.Workers
	if workers <= 1 {
		for i, claim := range claims {
			verdict, err := p.processClaim(ctx, logger, claim, language)
			if err != nil {
				return nil, err
			}
			verdicts[i] = verdict
		}
		return verdicts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, claim := range claims {
		g.Go(func() error {
			verdict, err := p.processClaim(gctx, logger, claim, language)
			if err != nil {
				return err
			}
			verdicts[i] = verdict
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (p *Pipeline) processClaim(ctx context.Context, logger *zap.Logger, claim model.Claim, language string) (model.ClaimVerdict, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.claim", trace.WithAttributes(attribute.String("claim_id", claim.ClaimID)))
	defer span.End()

	evidence := p.retriever.Retrieve(ctx, claim.Text, p.config.Search.MaxResults)

	verification, err := p.verifier.Verify(ctx, claim, evidence, language)
	if err != nil {
		span.RecordError(err)
		return model.ClaimVerdict{}, err
	}

	verdict := score.Aggregate(claim, *verification, p.policy)
	span.SetAttributes(
		attribute.String("verdict", string(verdict.Verdict)),
		attribute.Int("evidence", len(evidence)),
	)
	logger.Debug("claim verified",
		zap.String("claim_id", claim.ClaimID),
		zap.Int("evidence", len(evidence)),
		zap.String("label", string(verdict.Label)),
		zap.String("verdict", string(verdict.Verdict)),
		zap.Float64("confidence", verdict.Confidence))
	return verdict, nil
}

func (p *Pipeline) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", fault.ErrInvalidInput)
	}
	limit := p.config.Pipeline.MaxTextLength
	if limit > 0 {
		if n := utf8.RuneCountInString(text); n > limit {
			return fmt.Errorf("%w: text has %d characters, limit is %d", fault.ErrInvalidInput, n, limit)
		}
	}
	return nil
}

func (p *Pipeline) enter(logger *zap.Logger, run *model.VerificationRun, stage Stage) {
	logger.Debug("stage", zap.String("stage", string(stage)))
	if p.observer != nil {
		p.observer(run.JobID, stage)
	}
}

// newID returns prefix plus 12 random hex characters
func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
