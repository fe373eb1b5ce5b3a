package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("chat: %w", &ServiceError{Service: "groq", Err: cause})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatal("Expected errors.As to find ServiceError")
	}
	if svcErr.Service != "groq" {
		t.Errorf("Expected service groq, got %s", svcErr.Service)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected ServiceError to unwrap to its cause")
	}
}

func TestServiceError_Message(t *testing.T) {
	err := &ServiceError{Service: "duckduckgo", StatusCode: 503, Err: errors.New("unavailable")}
	if !strings.Contains(err.Error(), "HTTP 503") {
		t.Errorf("Expected status code in message, got %q", err.Error())
	}
}

func TestMalformedResponseError_TruncatesRaw(t *testing.T) {
	err := &MalformedResponseError{Raw: strings.Repeat("x", 500)}
	if len(err.Error()) > 260 {
		t.Errorf("Expected truncated message, got %d chars", len(err.Error()))
	}
	if len(err.Raw) != 500 {
		t.Error("Raw text must be kept intact")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"defect", &ValidationDefect{Index: 1, Field: "text", Reason: "missing"}, false},
		{"service", &ServiceError{Service: "groq", Err: errors.New("boom")}, true},
		{"malformed", &MalformedResponseError{Raw: "I cannot comply."}, true},
		{"configuration", Missing("GROQ_API_KEY"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
