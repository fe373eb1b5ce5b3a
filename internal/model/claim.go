package model

import "strings"

// Claim represents a discrete, checkable factual statement extracted from the input text
type Claim struct {
	ClaimID           string    `json:"claim_id"`           // Unique within a run (e.g., "c1")
	Text              string    `json:"text"`               // The claim text itself
	ClaimType         ClaimType `json:"claim_type"`         // numerical, comparative, categorical, temporal, causal
	Tokens            int       `json:"tokens"`             // Approximate token count reported by the model
	ExtractedEntities []string  `json:"extracted_entities"` // Named entities mentioned by the claim
	CharSpan          [2]int    `json:"char_span"`          // [start, end] offsets into the original text
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeNumerical   ClaimType = "numerical"   // Quantities, counts, measurements
	ClaimTypeComparative ClaimType = "comparative" // Larger/smaller/first/most
	ClaimTypeCategorical ClaimType = "categorical" // X is a Y
	ClaimTypeTemporal    ClaimType = "temporal"    // Dates, ordering in time
	ClaimTypeCausal      ClaimType = "causal"      // X causes Y
)

// DefaultClaimType is used when the model omits or garbles claim_type
const DefaultClaimType = ClaimTypeCategorical

// DefaultClaimTokens is used when the model omits the token count
const DefaultClaimTokens = 5

// ParseClaimType maps a free-form string onto a known claim type.
// Unknown or empty values fall back to DefaultClaimType.
func ParseClaimType(s string) ClaimType {
	switch ClaimType(strings.ToLower(strings.TrimSpace(s))) {
	case ClaimTypeNumerical:
		return ClaimTypeNumerical
	case ClaimTypeComparative:
		return ClaimTypeComparative
	case ClaimTypeTemporal:
		return ClaimTypeTemporal
	case ClaimTypeCausal:
		return ClaimTypeCausal
	default:
		return DefaultClaimType
	}
}
