package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/llm"
	"github.com/ppiankov/integrity/internal/model"
)

// mockRunner returns a canned run or error and records the last request
type mockRunner struct {
	run     *model.VerificationRun
	err     error
	lastReq model.VerifyRequest
}

func (m *mockRunner) Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.run, nil
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", "http://localhost:8501")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, New(model.ServerConfig{}, &mockRunner{}, nil), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["message"] != HealthMessage {
		t.Errorf("unexpected body %v", body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q, want *", got)
	}
}

func TestRoot(t *testing.T) {
	rec := do(t, New(model.ServerConfig{}, &mockRunner{}, nil), http.MethodGet, "/", "")

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>AI Reality Integrity Engine</h1>") {
		t.Errorf("unexpected root response %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}

func TestVerify_Success(t *testing.T) {
	userID := "u1"
	runner := &mockRunner{run: &model.VerificationRun{
		JobID:          "job-0123456789ab",
		RunID:          "run-0123456789ab",
		UserID:         &userID,
		Language:       "fr",
		OriginalText:   "Paris est la capitale.",
		Claims:         []model.Claim{},
		Verifications:  []model.ClaimVerdict{},
		OverallSummary: model.NoClaimsSummary,
	}}

	rec := do(t, New(model.ServerConfig{}, runner, nil), http.MethodPost, "/verify",
		`{"text":"Paris est la capitale.","user_id":"u1","language":"fr"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if runner.lastReq.Text != "Paris est la capitale." || runner.lastReq.Language != "fr" || runner.lastReq.UserID == nil || *runner.lastReq.UserID != "u1" {
		t.Errorf("request not passed through: %+v", runner.lastReq)
	}

	var run model.VerificationRun
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.RunID != "run-0123456789ab" || run.OverallSummary != model.NoClaimsSummary {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestVerify_BadBody(t *testing.T) {
	rec := do(t, New(model.ServerConfig{}, &mockRunner{}, nil), http.MethodPost, "/verify", `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestVerify_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRaw    string
	}{
		{"invalid input", fmt.Errorf("%w: text is empty", fault.ErrInvalidInput), http.StatusBadRequest, ""},
		{"configuration", fmt.Errorf("llm provider: %w", fault.Missing("groq api key")), http.StatusInternalServerError, ""},
		{"service", &fault.ServiceError{Service: "groq", StatusCode: 429, Err: errors.New("rate limited")}, http.StatusBadGateway, ""},
		{"malformed", fmt.Errorf("verify claim c1: %w", &fault.MalformedResponseError{Raw: "I cannot comply."}), http.StatusBadGateway, "I cannot comply."},
		{"timeout", fmt.Errorf("groq: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ""},
		{"provider timeout", fmt.Errorf("extract claims: %w", &fault.ServiceError{Service: "groq", Err: context.DeadlineExceeded}), http.StatusGatewayTimeout, ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New(model.ServerConfig{}, &mockRunner{err: tt.err}, nil), http.MethodPost, "/verify", `{"text":"x"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["detail"] == "" {
				t.Error("expected detail in error body")
			}
			if body["raw"] != tt.wantRaw {
				t.Errorf("raw = %q, want %q", body["raw"], tt.wantRaw)
			}
		})
	}
}

func TestErrorResponse_ProviderTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	provider, err := llm.NewHTTPProvider(llm.Config{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewHTTPProvider: %v", err)
	}
	_, err = provider.Chat(context.Background(), llm.ChatRequest{System: "s", User: "u"})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	status, _ := errorResponse(err)
	if status != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504 for %v", status, err)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	s := New(model.ServerConfig{Addr: "127.0.0.1:0"}, &mockRunner{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("ListenAndServe: %v", err)
	}
}
