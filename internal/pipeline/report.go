package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/integrity/internal/model"
)

// MarshalRun renders a run as indented JSON
func MarshalRun(run *model.VerificationRun) ([]byte, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes a run to path, creating parent directories
func WriteJSON(run *model.VerificationRun, path string) error {
	data, err := MarshalRun(run)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteSummary prints a short human-readable digest of a run
func WriteSummary(w io.Writer, run *model.VerificationRun) {
	fmt.Fprintf(w, "Run %s (%s, policy %s)\n", run.RunID, run.Language, run.PolicyVersion)

	if len(run.Claims) == 0 {
		fmt.Fprintf(w, "  %s\n", run.OverallSummary)
		return
	}

	for _, v := range run.Verifications {
		fmt.Fprintf(w, "  %s %-20s %.2f  %s\n", verdictMark(v.Verdict), v.Verdict, v.Confidence, v.ClaimText)
	}

	counts := run.VerdictCounts()
	parts := make([]string, 0, len(counts))
	for _, verdict := range []model.Verdict{
		model.VerdictTrue, model.VerdictVerified, model.VerdictPartiallySupported,
		model.VerdictFalse, model.VerdictUnverified,
	} {
		if n := counts[verdict]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, verdict))
		}
	}
	fmt.Fprintf(w, "  %d claims: %s\n", len(run.Claims), strings.Join(parts, ", "))
	fmt.Fprintf(w, "\n%s\n", run.OverallSummary)
}

func verdictMark(v model.Verdict) string {
	switch v {
	case model.VerdictTrue, model.VerdictVerified:
		return "✓"
	case model.VerdictFalse:
		return "✗"
	default:
		return "?"
	}
}
