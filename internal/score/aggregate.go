package score

import "github.com/ppiankov/integrity/internal/model"

// Aggregate derives the verdict for one claim. It performs no I/O and never fails.
func Aggregate(claim model.Claim, verification model.ClaimVerification, policy Policy) model.ClaimVerdict {
	if policy == nil {
		policy = binaryV1{}
	}

	// 1. Split the entailment score by label
	entailment := Clamp(verification.EntailmentScore)
	var s, c float64
	switch verification.Label {
	case model.LabelSupport:
		s = entailment
	case model.LabelContradict:
		c = entailment
	}

	// 2. Truth score
	score := Clamp(s - c)

	// 3. Verdict and confidence from the policy
	verdict, confidence := policy.Decide(verification.Label, s, c)

	label := verification.Label
	if label == "" {
		label = model.LabelNeutral
	}

	return model.ClaimVerdict{
		ClaimID:      claim.ClaimID,
		ClaimText:    claim.Text,
		Label:        label,
		Score:        score,
		Confidence:   Clamp(confidence),
		Verdict:      verdict,
		Rationale:    verification.Explanation,
		EvidenceUsed: verification.EvidenceUsed,
	}
}
