package pipeline

// Stage is one state of a run
type Stage string

// Run stages, in the order a successful run passes through them.
// A run with no claims goes EXTRACTING, NO_CLAIMS, DONE.
const (
	StageReceived     Stage = "RECEIVED"
	StageExtracting   Stage = "EXTRACTING"
	StageNoClaims     Stage = "NO_CLAIMS"
	StagePerClaimLoop Stage = "PER_CLAIM_LOOP"
	StageSummarizing  Stage = "SUMMARIZING"
	StageDone         Stage = "DONE"
	StageFailed       Stage = "FAILED"
)

// StageObserver is called on every stage transition with the run's job id.
// It runs on the caller's goroutine and must not block.
type StageObserver func(jobID string, stage Stage)
