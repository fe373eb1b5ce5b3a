package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/integrity/internal/model"
)

const summarySystemPrompt = "Summarize fact-checking results. JSON only."

// Summarizer writes the overall natural-language summary of a run
type Summarizer struct {
	provider Provider
}

// NewSummarizer creates a summarizer backed by provider
func NewSummarizer(provider Provider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize asks the model for a summary of the verdicts in language.
// When the reply lacks a "summary" string the whole object is returned serialized.
func (s *Summarizer) Summarize(ctx context.Context, verdicts []model.ClaimVerdict, language string) (string, error) {
	obj, err := ChatJSON(ctx, s.provider, summarySystemPrompt, BuildSummaryPrompt(verdicts, language))
	if err != nil {
		return "", err
	}

	if summary, ok := obj["summary"].(string); ok {
		return summary, nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("serialize summary object: %w", err)
	}
	return string(data), nil
}

// BuildSummaryPrompt renders the summary user prompt, one line per verdict
func BuildSummaryPrompt(verdicts []model.ClaimVerdict, language string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n\nVerdicts:\n", language)
	for _, v := range verdicts {
		fmt.Fprintf(&sb, "- %s: %s (%.2f)\n", v.ClaimText, v.Verdict, v.Confidence)
	}
	sb.WriteString("\nReturn: {\"summary\":\"...\"}")
	return sb.String()
}
