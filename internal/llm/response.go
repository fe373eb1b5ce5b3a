package llm

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractionRule names a gjson path that may hold the assistant text
type ExtractionRule struct {
	Name string
	Path string
}

// DefaultExtractionRules covers the response shapes of common chat gateways.
// Rules are tried in order; the first non-empty string wins. When none match
// and "response" holds an object, the rules are applied to it in turn.
var DefaultExtractionRules = []ExtractionRule{
	{Name: "openai-chat", Path: "choices.0.message.content"},
	{Name: "openai-completion", Path: "choices.0.text"},
	{Name: "output", Path: "output"},
	{Name: "responses-api", Path: "output.0.content.0.text"},
	{Name: "text", Path: "text"},
	{Name: "content", Path: "content"},
	{Name: "anthropic-messages", Path: "content.0.text"},
	{Name: "result", Path: "result"},
	{Name: "response", Path: "response"},
	{Name: "message", Path: "message.content"},
}

// ErrNoAssistantText is returned when no rule matches a response body
var ErrNoAssistantText = errors.New("no assistant text found in response")

// ResponseAdapter pulls the assistant text out of an arbitrary JSON response
type ResponseAdapter struct {
	rules []ExtractionRule
}

// NewResponseAdapter creates an adapter. Nil or empty rules select DefaultExtractionRules.
func NewResponseAdapter(rules []ExtractionRule) *ResponseAdapter {
	if len(rules) == 0 {
		rules = DefaultExtractionRules
	}
	return &ResponseAdapter{rules: rules}
}

// Extract returns the assistant text and the name of the rule that matched.
// A body that is not JSON at all is returned verbatim as plain text.
func (a *ResponseAdapter) Extract(body []byte) (string, string, error) {
	if !gjson.ValidBytes(body) {
		text := strings.TrimSpace(string(body))
		if text == "" {
			return "", "", ErrNoAssistantText
		}
		return text, "plain-text", nil
	}

	return a.extract(gjson.ParseBytes(body), 0)
}

// maxResponseDepth bounds how many "response" envelopes are unwrapped
const maxResponseDepth = 8

func (a *ResponseAdapter) extract(doc gjson.Result, depth int) (string, string, error) {
	for _, rule := range a.rules {
		result := doc.Get(rule.Path)
		if result.Type != gjson.String {
			continue
		}
		if text := strings.TrimSpace(result.Str); text != "" {
			return text, rule.Name, nil
		}
	}

	if nested := doc.Get("response"); nested.IsObject() && depth < maxResponseDepth {
		text, rule, err := a.extract(nested, depth+1)
		if err != nil {
			return "", "", err
		}
		return text, "response." + rule, nil
	}

	return "", "", ErrNoAssistantText
}

// extractModel reads the model name most gateways echo back
func extractModel(body []byte) string {
	return gjson.GetBytes(body, "model").String()
}

// extractTokens reads total token usage across the common usage layouts
func extractTokens(body []byte) int {
	usage := gjson.GetBytes(body, "usage")
	if !usage.Exists() {
		return 0
	}
	if total := usage.Get("total_tokens"); total.Exists() {
		return int(total.Int())
	}
	return int(usage.Get("input_tokens").Int() + usage.Get("output_tokens").Int())
}
