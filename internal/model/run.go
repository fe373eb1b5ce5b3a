package model

import "time"

// CreatedAtLayout is the ISO-8601 UTC layout used for VerificationRun.CreatedAt
const CreatedAtLayout = "2006-01-02T15:04:05.000000Z"

// NoClaimsSummary is the overall summary of a run whose text yielded no factual claims
const NoClaimsSummary = "No factual claims were detected in the provided text."

// VerificationRun is the complete result of one pipeline execution.
// verifications[i] always corresponds to claims[i].
type VerificationRun struct {
	JobID          string         `json:"job_id"`
	RunID          string         `json:"run_id"`
	CreatedAt      string         `json:"created_at"` // ISO-8601 UTC
	UserID         *string        `json:"user_id,omitempty"`
	Language       string         `json:"language"`
	PolicyVersion  string         `json:"policy_version"`
	OriginalText   string         `json:"original_text"`
	Claims         []Claim        `json:"claims"`
	Verifications  []ClaimVerdict `json:"verifications"`
	OverallSummary string         `json:"overall_summary"`
}

// FormatCreatedAt renders t in the run timestamp layout
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// VerdictCounts tallies verdicts across the run
func (r *VerificationRun) VerdictCounts() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, v := range r.Verifications {
		counts[v.Verdict]++
	}
	return counts
}
