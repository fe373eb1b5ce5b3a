package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/integrity/internal/fault"
)

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{"pure object", `{"a": 1}`, map[string]any{"a": 1.0}},
		{"surrounding whitespace", "\n  {\"a\": \"x\"}  \n", map[string]any{"a": "x"}},
		{"prose prefix", `Sure! {"label":"SUPPORT"}`, map[string]any{"label": "SUPPORT"}},
		{"markdown fence", "```json\n{\"claims\": []}\n```", map[string]any{"claims": []any{}}},
		{"nested braces", `Here: {"a": {"b": 2}} done`, map[string]any{"a": map[string]any{"b": 2.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONObject(tt.text)
			if err != nil {
				t.Fatalf("ParseJSONObject: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJSONObject_Malformed(t *testing.T) {
	for _, text := range []string{
		"I cannot comply.",
		"",
		"} backwards {",
		"[1, 2, 3]",
		`{"a": 1} and {"b": 2}`,
	} {
		_, err := ParseJSONObject(text)
		var malformed *fault.MalformedResponseError
		if !errors.As(err, &malformed) {
			t.Errorf("ParseJSONObject(%q) error = %v, want MalformedResponseError", text, err)
			continue
		}
		if malformed.Raw != text {
			t.Errorf("Raw = %q, want %q", malformed.Raw, text)
		}
	}
}

func TestChatJSON_AppendsInstruction(t *testing.T) {
	mock := &MockProvider{name: "mock", text: `{"ok": true}`}

	obj, err := ChatJSON(context.Background(), mock, "Be terse.", "hello")
	if err != nil {
		t.Fatalf("ChatJSON: %v", err)
	}
	if obj["ok"] != true {
		t.Errorf("Unexpected object: %v", obj)
	}
	if !strings.HasSuffix(mock.lastReq.System, "\nIMPORTANT: Return ONLY pure JSON.") {
		t.Errorf("System prompt missing JSON instruction: %q", mock.lastReq.System)
	}
	if mock.lastReq.User != "hello" {
		t.Errorf("User prompt altered: %q", mock.lastReq.User)
	}
}

func TestChatJSON_ProviderErrorPassesThrough(t *testing.T) {
	svcErr := &fault.ServiceError{Service: "mock", StatusCode: 503, Err: errors.New("unavailable")}
	mock := &MockProvider{name: "mock", err: svcErr}

	_, err := ChatJSON(context.Background(), mock, "s", "u")
	var got *fault.ServiceError
	if !errors.As(err, &got) || got.StatusCode != 503 {
		t.Fatalf("Expected ServiceError 503, got %v", err)
	}
}
