package model

import "strings"

// Label is the entailment relation between evidence and a claim
type Label string

const (
	LabelSupport    Label = "SUPPORT"
	LabelContradict Label = "CONTRADICT"
	LabelNeutral    Label = "NEUTRAL"
)

// ParseLabel normalizes a model-provided label. Anything unrecognized is NEUTRAL.
func ParseLabel(s string) Label {
	switch Label(strings.ToUpper(strings.TrimSpace(s))) {
	case LabelSupport:
		return LabelSupport
	case LabelContradict:
		return LabelContradict
	default:
		return LabelNeutral
	}
}

// ClaimVerification is the entailment judgment for one claim
type ClaimVerification struct {
	ClaimID         string            `json:"claim_id"`
	Label           Label             `json:"label"`
	EntailmentScore float64           `json:"entailment_score"` // Clamped to [0,1]
	ExtractedFacts  map[string]any    `json:"extracted_facts"`
	Explanation     string            `json:"explanation"`
	EvidenceUsed    []EvidenceSnippet `json:"evidence_used"`
}

// Verdict is the final human-facing label for one claim.
// The vocabulary depends on the verdict policy in use.
type Verdict string

const (
	// binary-v1 vocabulary
	VerdictTrue  Verdict = "TRUE"
	VerdictFalse Verdict = "FALSE"

	// graded-v2 vocabulary
	VerdictVerified           Verdict = "VERIFIED"
	VerdictPartiallySupported Verdict = "PARTIALLY_SUPPORTED"

	// Shared by both vocabularies
	VerdictUnverified Verdict = "UNVERIFIED"
)

// ClaimVerdict is derived deterministically from one Claim and its ClaimVerification
type ClaimVerdict struct {
	ClaimID      string            `json:"claim_id"`
	ClaimText    string            `json:"claim_text"`
	Label        Label             `json:"label"`
	Score        float64           `json:"score"`      // Truth score in [0,1]
	Confidence   float64           `json:"confidence"` // In [0,1]
	Verdict      Verdict           `json:"verdict"`
	Rationale    string            `json:"rationale"`
	EvidenceUsed []EvidenceSnippet `json:"evidence_used"`
}
