package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/llm"
	"github.com/ppiankov/integrity/internal/model"
	"go.uber.org/zap"
)

const claimsSystemPrompt = "Extract factual statements. Return JSON only."

// ClaimExtractor asks an LLM to split free text into checkable claims
type ClaimExtractor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(provider llm.Provider, logger *zap.Logger) *ClaimExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimExtractor{
		provider: provider,
		logger:   logger,
	}
}

// Extract returns the claims found in text. An empty slice is a valid result.
// Entries the model returns without usable text are dropped and logged.
func (e *ClaimExtractor) Extract(ctx context.Context, text, language string) ([]model.Claim, error) {
	data, err := llm.ChatJSON(ctx, e.provider, claimsSystemPrompt, BuildClaimsPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	rawClaims, ok := data["claims"].([]any)
	if !ok {
		if data["claims"] != nil {
			e.logger.Warn("claims field is not a list, treating as no claims",
				zap.String("type", fmt.Sprintf("%T", data["claims"])))
		}
		return []model.Claim{}, nil
	}

	claims := make([]model.Claim, 0, len(rawClaims))
	ids := newIDAllocator()

	for i, raw := range rawClaims {
		index := i + 1
		claim, err := coerceClaim(index, raw)
		if err != nil {
			if fault.IsFatal(err) {
				return nil, fmt.Errorf("extract claims: %w", err)
			}
			e.logger.Warn("dropping claim entry",
				zap.Int("index", index),
				zap.Error(err),
				zap.String("language", language))
			continue
		}
		claim.ClaimID = ids.assign(claim.ClaimID, index)
		claims = append(claims, claim)
	}

	return claims, nil
}

// BuildClaimsPrompt renders the extraction user prompt
func BuildClaimsPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("\nText:\n\"\"\"")
	sb.WriteString(text)
	sb.WriteString("\"\"\"\n\n")
	sb.WriteString(`Return:
{
 "claims":[
   {
     "claim_id":"c1",
     "text":"..",
     "claim_type":"categorical",
     "tokens":5,
     "extracted_entities":["A","B"],
     "char_span":[0,20]
   }
 ]
}
`)
	return sb.String()
}

// coerceClaim turns one model entry into a Claim, filling defaults.
// Only a missing or blank text makes the entry unusable; that is reported
// as a ValidationDefect, which does not abort the run.
func coerceClaim(index int, raw any) (model.Claim, error) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return model.Claim{}, &fault.ValidationDefect{Index: index, Field: "entry", Reason: fmt.Sprintf("expected object, got %T", raw)}
	}

	text, ok := entry["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return model.Claim{}, &fault.ValidationDefect{Index: index, Field: "text", Reason: "missing or empty"}
	}

	claimType := model.DefaultClaimType
	if s, ok := entry["claim_type"].(string); ok {
		claimType = model.ParseClaimType(s)
	}

	tokens, ok := toInt(entry["tokens"])
	if !ok || tokens < 0 {
		tokens = model.DefaultClaimTokens
	}

	claimID, _ := entry["claim_id"].(string)

	return model.Claim{
		ClaimID:           strings.TrimSpace(claimID),
		Text:              strings.TrimSpace(text),
		ClaimType:         claimType,
		Tokens:            tokens,
		ExtractedEntities: toStringSlice(entry["extracted_entities"]),
		CharSpan:          toSpan(entry["char_span"]),
	}, nil
}

// idAllocator keeps claim ids unique within one extraction
type idAllocator struct {
	used map[string]bool
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]bool)}
}

// assign returns id when it is free, otherwise c{index}, then c{index}-{n}
func (a *idAllocator) assign(id string, index int) string {
	if id != "" && !a.used[id] {
		a.used[id] = true
		return id
	}

	candidate := fmt.Sprintf("c%d", index)
	for n := 2; a.used[candidate]; n++ {
		candidate = fmt.Sprintf("c%d-%d", index, n)
	}
	a.used[candidate] = true
	return candidate
}
