// Package verify judges whether evidence supports, contradicts, or is neutral
// towards a single claim.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/integrity/internal/llm"
	"github.com/ppiankov/integrity/internal/model"
	"go.uber.org/zap"
)

const verifySystemPrompt = "You are a fact-checking NLI system. Return JSON only."

// NoEvidenceInstruction replaces the evidence block when retrieval found nothing
const NoEvidenceInstruction = "No external evidence. Use general world knowledge, science, history, and geographical facts to evaluate the claim."

// Verifier runs one entailment judgment per claim
type Verifier struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewVerifier creates a new claim verifier
func NewVerifier(provider llm.Provider, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		provider: provider,
		logger:   logger,
	}
}

// Verify asks the model to judge claim against evidence.
// Field values are coerced; only an unreachable provider or a reply with no
// JSON object at all is an error.
func (v *Verifier) Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceSnippet, language string) (*model.ClaimVerification, error) {
	data, err := llm.ChatJSON(ctx, v.provider, verifySystemPrompt, BuildVerifyPrompt(claim.Text, evidence, language))
	if err != nil {
		return nil, fmt.Errorf("verify claim %s: %w", claim.ClaimID, err)
	}

	rawLabel, _ := data["label"].(string)
	label := model.ParseLabel(rawLabel)
	if rawLabel != string(label) {
		v.logger.Debug("label coerced",
			zap.String("claim_id", claim.ClaimID),
			zap.String("raw", rawLabel),
			zap.String("label", string(label)))
	}

	facts, ok := data["extracted_facts"].(map[string]any)
	if !ok {
		facts = map[string]any{}
	}

	explanation, _ := data["explanation"].(string)

	if evidence == nil {
		evidence = []model.EvidenceSnippet{}
	}

	return &model.ClaimVerification{
		ClaimID:         claim.ClaimID,
		Label:           label,
		EntailmentScore: coerceScore(data["entailment_score"]),
		ExtractedFacts:  facts,
		Explanation:     explanation,
		EvidenceUsed:    evidence,
	}, nil
}

// BuildVerifyPrompt renders the verification user prompt
func BuildVerifyPrompt(claimText string, evidence []model.EvidenceSnippet, language string) string {
	var sb strings.Builder
	sb.WriteString("\nClaim: \"")
	sb.WriteString(claimText)
	sb.WriteString("\"\n\nEvidence:\n\"\"\"")
	sb.WriteString(formatEvidence(evidence))
	sb.WriteString("\"\"\"\n\n")
	if language != "" {
		fmt.Fprintf(&sb, "Write the explanation in language: %s\n\n", language)
	}
	sb.WriteString(`Return:
{
 "label":"SUPPORT"|"CONTRADICT"|"NEUTRAL",
 "entailment_score":0.0,
 "extracted_facts":{},
 "explanation":"..."
}
`)
	return sb.String()
}

// formatEvidence numbers snippets from 1 as "[i] title: snippet"
func formatEvidence(evidence []model.EvidenceSnippet) string {
	if len(evidence) == 0 {
		return NoEvidenceInstruction
	}

	parts := make([]string, 0, len(evidence))
	for i, e := range evidence {
		if title := e.TitleOrEmpty(); title != "" {
			parts = append(parts, fmt.Sprintf("[%d] %s: %s", i+1, title, e.Snippet))
		} else {
			parts = append(parts, fmt.Sprintf("[%d] %s", i+1, e.Snippet))
		}
	}
	return strings.Join(parts, "\n\n")
}

// coerceScore maps any model-provided score onto [0,1]. Non-numeric is 0.
func coerceScore(raw any) float64 {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case int:
		f = float64(v)
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
