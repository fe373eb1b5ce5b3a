package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
)

// JSONOnlyInstruction is appended to every system prompt sent through ChatJSON
const JSONOnlyInstruction = "\nIMPORTANT: Return ONLY pure JSON."

// ChatJSON sends one prompt pair and decodes the reply as a JSON object.
// Provider failures pass through unchanged; unparseable replies become
// fault.MalformedResponseError carrying the raw text.
func ChatJSON(ctx context.Context, provider Provider, system, user string) (map[string]any, error) {
	resp, err := provider.Chat(ctx, ChatRequest{
		System: system + JSONOnlyInstruction,
		User:   user,
	})
	if err != nil {
		return nil, err
	}
	return ParseJSONObject(resp.Text)
}

// ParseJSONObject decodes text as a JSON object. When the whole text does not
// parse, the span from the first '{' to the last '}' is tried before giving up.
func ParseJSONObject(text string) (map[string]any, error) {
	if obj, ok := decodeObject(strings.TrimSpace(text)); ok {
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := decodeObject(text[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, &fault.MalformedResponseError{Raw: text}
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
