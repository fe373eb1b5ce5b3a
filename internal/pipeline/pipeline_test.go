package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/llm"
	"github.com/ppiankov/integrity/internal/model"
	"github.com/ppiankov/integrity/internal/score"
	"github.com/ppiankov/integrity/internal/verify"
)

type fakeExtractor struct {
	claims []model.Claim
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, text, language string) ([]model.Claim, error) {
	return f.claims, f.err
}

type fakeRetriever struct {
	calls atomic.Int32
}

func (f *fakeRetriever) Retrieve(ctx context.Context, claimText string, maxResults int) []model.EvidenceSnippet {
	f.calls.Add(1)
	return []model.EvidenceSnippet{{Source: "web:fake", Snippet: "about " + claimText}}
}

// fakeVerifier supports every claim. Earlier claims answer slower so a
// parallel run finishes out of order.
type fakeVerifier struct {
	calls atomic.Int32
	delay bool
	err   error
}

func (f *fakeVerifier) Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceSnippet, language string) (*model.ClaimVerification, error) {
	n := f.calls.Add(1)
	if f.delay {
		time.Sleep(time.Duration(10-int(n)%10) * time.Millisecond)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.ClaimVerification{
		ClaimID:         claim.ClaimID,
		Label:           model.LabelSupport,
		EntailmentScore: 0.9,
		ExtractedFacts:  map[string]any{},
		Explanation:     "checked " + claim.ClaimID,
		EvidenceUsed:    evidence,
	}, nil
}

type fakeSummarizer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, verdicts []model.ClaimVerdict, language string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%d claims checked", len(verdicts)), nil
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []Stage
}

func (r *stageRecorder) observe(jobID string, stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func claimsN(n int) []model.Claim {
	claims := make([]model.Claim, n)
	for i := range claims {
		claims[i] = model.Claim{ClaimID: fmt.Sprintf("c%d", i+1), Text: fmt.Sprintf("claim %d", i+1), ClaimType: model.ClaimTypeCategorical}
	}
	return claims
}

func newTestPipeline(t *testing.T, cfg *model.Config, ex ClaimExtractor, re EvidenceRetriever, ve ClaimVerifier, su Summarizer, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(cfg, ex, re, ve, su, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRun_NoClaimsShortCircuits(t *testing.T) {
	retriever := &fakeRetriever{}
	verifier := &fakeVerifier{}
	summarizer := &fakeSummarizer{}
	recorder := &stageRecorder{}

	p := newTestPipeline(t, nil, &fakeExtractor{claims: []model.Claim{}}, retriever, verifier, summarizer, WithObserver(recorder.observe))

	run, err := p.Run(context.Background(), model.VerifyRequest{Text: "The sky is blue today in my opinion"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Claims == nil || len(run.Claims) != 0 || run.Verifications == nil || len(run.Verifications) != 0 {
		t.Errorf("expected empty claims and verifications, got %+v", run)
	}
	if run.OverallSummary != model.NoClaimsSummary {
		t.Errorf("summary = %q", run.OverallSummary)
	}
	if retriever.calls.Load()+verifier.calls.Load()+summarizer.calls.Load() != 0 {
		t.Error("retriever, verifier and summarizer must not be called")
	}

	want := []Stage{StageReceived, StageExtracting, StageNoClaims, StageDone}
	if diff := cmp.Diff(want, recorder.stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_PreservesClaimOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		for n := 0; n <= 5; n++ {
			t.Run(fmt.Sprintf("workers=%d/n=%d", workers, n), func(t *testing.T) {
				cfg := model.DefaultConfig()
				cfg.Pipeline.Workers = workers

				p := newTestPipeline(t, cfg, &fakeExtractor{claims: claimsN(n)}, &fakeRetriever{}, &fakeVerifier{delay: true}, &fakeSummarizer{})
				run, err := p.Run(context.Background(), model.VerifyRequest{Text: "some text"})
				if err != nil {
					t.Fatalf("Run: %v", err)
				}

				if len(run.Verifications) != len(run.Claims) {
					t.Fatalf("len(verifications)=%d, len(claims)=%d", len(run.Verifications), len(run.Claims))
				}
				for i := range run.Claims {
					if run.Verifications[i].ClaimID != run.Claims[i].ClaimID {
						t.Errorf("verifications[%d].claim_id = %s, want %s", i, run.Verifications[i].ClaimID, run.Claims[i].ClaimID)
					}
				}
			})
		}
	}
}

func TestRun_FullRun(t *testing.T) {
	recorder := &stageRecorder{}
	userID := "u-42"
	p := newTestPipeline(t, nil, &fakeExtractor{claims: claimsN(2)}, &fakeRetriever{}, &fakeVerifier{}, &fakeSummarizer{}, WithObserver(recorder.observe))
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC) }

	run, err := p.Run(context.Background(), model.VerifyRequest{Text: "claim 1. claim 2.", UserID: &userID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.HasPrefix(run.JobID, "job-") || len(run.JobID) != 16 {
		t.Errorf("job_id = %q", run.JobID)
	}
	if !strings.HasPrefix(run.RunID, "run-") || len(run.RunID) != 16 {
		t.Errorf("run_id = %q", run.RunID)
	}
	if run.CreatedAt != "2024-05-01T12:30:00.123456Z" {
		t.Errorf("created_at = %q", run.CreatedAt)
	}
	if run.UserID == nil || *run.UserID != userID || run.Language != "en" || run.PolicyVersion != score.BinaryV1 {
		t.Errorf("unexpected run metadata %+v", run)
	}
	if run.OverallSummary != "2 claims checked" {
		t.Errorf("summary = %q", run.OverallSummary)
	}

	want := model.ClaimVerdict{
		ClaimID:      "c1",
		ClaimText:    "claim 1",
		Label:        model.LabelSupport,
		Score:        0.9,
		Confidence:   0.9,
		Verdict:      model.VerdictTrue,
		Rationale:    "checked c1",
		EvidenceUsed: []model.EvidenceSnippet{{Source: "web:fake", Snippet: "about claim 1"}},
	}
	if diff := cmp.Diff(want, run.Verifications[0]); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}

	wantStages := []Stage{StageReceived, StageExtracting, StagePerClaimLoop, StageSummarizing, StageDone}
	if diff := cmp.Diff(wantStages, recorder.stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
}

// mockProvider answers every chat with the same text
type mockProvider struct {
	text string
}

func (m *mockProvider) Name() string                         { return "mock" }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }
func (m *mockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Text: m.text}, nil
}

func TestRun_UnparseableVerification(t *testing.T) {
	recorder := &stageRecorder{}
	summarizer := &fakeSummarizer{}
	verifier := verify.NewVerifier(&mockProvider{text: "I cannot comply."}, nil)

	p := newTestPipeline(t, nil, &fakeExtractor{claims: claimsN(1)}, &fakeRetriever{}, verifier, summarizer, WithObserver(recorder.observe))

	run, err := p.Run(context.Background(), model.VerifyRequest{Text: "Paris is the capital of France"})
	if run != nil {
		t.Errorf("no partial run expected, got %+v", run)
	}
	var malformed *fault.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if summarizer.calls.Load() != 0 {
		t.Error("summarizer must not run after a failed claim")
	}
	if last := recorder.stages[len(recorder.stages)-1]; last != StageFailed {
		t.Errorf("last stage = %s, want FAILED", last)
	}
}

func TestRun_ParallelFailureCancels(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Pipeline.Workers = 3
	cause := &fault.ServiceError{Service: "groq", StatusCode: 503, Err: errors.New("unavailable")}

	p := newTestPipeline(t, cfg, &fakeExtractor{claims: claimsN(5)}, &fakeRetriever{}, &fakeVerifier{err: cause}, &fakeSummarizer{})
	_, err := p.Run(context.Background(), model.VerifyRequest{Text: "x"})

	var svc *fault.ServiceError
	if !errors.As(err, &svc) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

func TestRun_ExtractionAndSummaryErrorsPropagate(t *testing.T) {
	cause := &fault.ServiceError{Service: "groq", StatusCode: 401, Err: errors.New("bad key")}

	p := newTestPipeline(t, nil, &fakeExtractor{err: cause}, &fakeRetriever{}, &fakeVerifier{}, &fakeSummarizer{})
	if _, err := p.Run(context.Background(), model.VerifyRequest{Text: "x"}); !errors.Is(err, cause) {
		t.Errorf("extract: expected cause, got %v", err)
	}

	p = newTestPipeline(t, nil, &fakeExtractor{claims: claimsN(1)}, &fakeRetriever{}, &fakeVerifier{}, &fakeSummarizer{err: cause})
	if _, err := p.Run(context.Background(), model.VerifyRequest{Text: "x"}); !errors.Is(err, cause) {
		t.Errorf("summarize: expected cause, got %v", err)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Pipeline.MaxTextLength = 10
	extractor := &fakeExtractor{}
	p := newTestPipeline(t, cfg, extractor, &fakeRetriever{}, &fakeVerifier{}, &fakeSummarizer{})

	for _, text := range []string{"", "   \n\t", "eleven runes"} {
		if _, err := p.Run(context.Background(), model.VerifyRequest{Text: text}); !errors.Is(err, fault.ErrInvalidInput) {
			t.Errorf("text %q: expected ErrInvalidInput, got %v", text, err)
		}
	}

	// Nine two-byte runes are within the limit
	if _, err := p.Run(context.Background(), model.VerifyRequest{Text: "ééééééééé"}); err != nil {
		t.Errorf("rune-counted text rejected: %v", err)
	}
}

func TestRun_LanguageAndPolicy(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Pipeline.Policy = score.GradedV2

	p := newTestPipeline(t, cfg, &fakeExtractor{claims: claimsN(1)}, &fakeRetriever{}, &fakeVerifier{}, &fakeSummarizer{})
	run, err := p.Run(context.Background(), model.VerifyRequest{Text: "x", Language: "fr"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Language != "fr" || run.PolicyVersion != score.GradedV2 || run.Verifications[0].Verdict != model.VerdictVerified {
		t.Errorf("unexpected run %+v", run)
	}

	cfg.Pipeline.Policy = "nope"
	var cfgErr *fault.ConfigurationError
	if _, err := New(cfg, nil, nil, nil, nil); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError for unknown policy, got %v", err)
	}
}

func TestNewFromConfig_MissingKey(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = ""

	_, err := NewFromConfig(cfg, nil)
	var cfgErr *fault.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestNewID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newID("run")
		if len(id) != 16 || seen[id] {
			t.Fatalf("bad or duplicate id %q", id)
		}
		seen[id] = true
	}
}
