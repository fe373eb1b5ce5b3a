package llm

import (
	"errors"
	"testing"
)

func TestResponseAdapter_Extract(t *testing.T) {
	adapter := NewResponseAdapter(nil)

	tests := []struct {
		name     string
		body     string
		wantText string
		wantRule string
	}{
		{"chat completion", `{"choices":[{"message":{"content":" hi "}}]}`, "hi", "openai-chat"},
		{"legacy completion", `{"choices":[{"text":"hi"}]}`, "hi", "openai-completion"},
		{"responses api", `{"output":[{"content":[{"text":"hi"}]}]}`, "hi", "responses-api"},
		{"text field", `{"text":"hi"}`, "hi", "text"},
		{"result field", `{"result":"hi"}`, "hi", "result"},
		{"message content", `{"message":{"content":"hi"}}`, "hi", "message"},
		{"skips empty earlier match", `{"text":"","result":"hi"}`, "hi", "result"},
		{"nested response", `{"response":{"text":"hi"}}`, "hi", "response.text"},
		{"deeply nested response", `{"response":{"response":{"choices":[{"message":{"content":"hi"}}]}}}`, "hi", "response.response.openai-chat"},
		{"plain text body", "hi there", "hi there", "plain-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, rule, err := adapter.Extract([]byte(tt.body))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if rule != tt.wantRule {
				t.Errorf("rule = %q, want %q", rule, tt.wantRule)
			}
		})
	}
}

func TestResponseAdapter_NoMatch(t *testing.T) {
	adapter := NewResponseAdapter(nil)

	for _, body := range []string{`{"choices":[]}`, `{"text":42}`, `{"response":{"response":{}}}`, ``, `   `} {
		if _, _, err := adapter.Extract([]byte(body)); !errors.Is(err, ErrNoAssistantText) {
			t.Errorf("Extract(%q) error = %v, want ErrNoAssistantText", body, err)
		}
	}
}

func TestResponseAdapter_CustomRules(t *testing.T) {
	adapter := NewResponseAdapter([]ExtractionRule{{Name: "custom", Path: "data.answer"}})

	text, rule, err := adapter.Extract([]byte(`{"text":"ignored","data":{"answer":"yes"}}`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "yes" || rule != "custom" {
		t.Errorf("got (%q, %q), want (yes, custom)", text, rule)
	}
}

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"usage":{"total_tokens":12}}`, 12},
		{`{"usage":{"input_tokens":3,"output_tokens":4}}`, 7},
		{`{}`, 0},
	}
	for _, tt := range tests {
		if got := extractTokens([]byte(tt.body)); got != tt.want {
			t.Errorf("extractTokens(%s) = %d, want %d", tt.body, got, tt.want)
		}
	}
}
