package score

import (
	"errors"
	"math"
	"testing"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
)

var claim = model.Claim{ClaimID: "c1", Text: "Paris is the capital of France"}

func verification(label model.Label, score float64) model.ClaimVerification {
	return model.ClaimVerification{
		ClaimID:         "c1",
		Label:           label,
		EntailmentScore: score,
		Explanation:     "because",
		EvidenceUsed:    []model.EvidenceSnippet{{Source: "web:ddg", Snippet: "x"}},
	}
}

// scores sweeps [0,1] in steps of 0.05
func scores() []float64 {
	var out []float64
	for i := 0; i <= 20; i++ {
		out = append(out, float64(i)/20)
	}
	return out
}

func binary(t *testing.T) Policy {
	t.Helper()
	p, err := PolicyByName(BinaryV1)
	if err != nil {
		t.Fatalf("PolicyByName: %v", err)
	}
	return p
}

func TestAggregate_BinarySupport(t *testing.T) {
	for _, s := range scores() {
		got := Aggregate(claim, verification(model.LabelSupport, s), binary(t))
		if got.Score != s || got.Confidence != math.Max(0.8, s) || got.Verdict != model.VerdictTrue {
			t.Errorf("SUPPORT@%v: got score=%v confidence=%v verdict=%s", s, got.Score, got.Confidence, got.Verdict)
		}
	}
}

func TestAggregate_BinaryContradict(t *testing.T) {
	for _, c := range scores() {
		got := Aggregate(claim, verification(model.LabelContradict, c), binary(t))
		if got.Score != 0 || got.Confidence != math.Max(0.8, c) || got.Verdict != model.VerdictFalse {
			t.Errorf("CONTRADICT@%v: got score=%v confidence=%v verdict=%s", c, got.Score, got.Confidence, got.Verdict)
		}
	}
}

func TestAggregate_BinaryNeutral(t *testing.T) {
	for _, x := range append(scores(), -5, 7, math.NaN()) {
		got := Aggregate(claim, verification(model.LabelNeutral, x), binary(t))
		if got.Score != 0 || got.Confidence != 0.10 || got.Verdict != model.VerdictUnverified {
			t.Errorf("NEUTRAL@%v: got score=%v confidence=%v verdict=%s", x, got.Score, got.Confidence, got.Verdict)
		}
	}
}

func TestAggregate_CopiesRationaleAndEvidence(t *testing.T) {
	v := verification(model.LabelSupport, 0.9)
	got := Aggregate(claim, v, binary(t))

	if got.ClaimID != "c1" || got.ClaimText != claim.Text {
		t.Errorf("claim identity not copied: %+v", got)
	}
	if got.Rationale != "because" {
		t.Errorf("rationale = %q", got.Rationale)
	}
	if len(got.EvidenceUsed) != 1 || &got.EvidenceUsed[0] != &v.EvidenceUsed[0] {
		t.Error("evidence_used should share the verification's slice")
	}
}

func TestAggregate_ScoreAlwaysInRange(t *testing.T) {
	inputs := []float64{-1e9, -1, -0.01, 0, 0.5, 1, 1.01, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, p := range []string{BinaryV1, GradedV2} {
		policy, _ := PolicyByName(p)
		for _, label := range []model.Label{model.LabelSupport, model.LabelContradict, model.LabelNeutral} {
			for _, x := range inputs {
				got := Aggregate(claim, verification(label, x), policy)
				if got.Score < 0 || got.Score > 1 || got.Confidence < 0 || got.Confidence > 1 {
					t.Errorf("%s %s@%v: score=%v confidence=%v out of range", p, label, x, got.Score, got.Confidence)
				}
			}
		}
	}
}

func TestClamp_Idempotent(t *testing.T) {
	for _, x := range []float64{-2, -0.5, 0, 0.3, 1, 1.5, math.Inf(1), math.NaN()} {
		once := Clamp(x)
		if twice := Clamp(once); twice != once {
			t.Errorf("Clamp(Clamp(%v)) = %v, want %v", x, twice, once)
		}
	}
}

func TestAggregate_GradedV2(t *testing.T) {
	policy, err := PolicyByName(GradedV2)
	if err != nil {
		t.Fatalf("PolicyByName: %v", err)
	}

	tests := []struct {
		label          model.Label
		score          float64
		wantVerdict    model.Verdict
		wantConfidence float64
	}{
		{model.LabelSupport, 0.95, model.VerdictVerified, 0.95},
		{model.LabelSupport, 0.75, model.VerdictVerified, 0.8},
		{model.LabelSupport, 0.6, model.VerdictPartiallySupported, 0.6},
		{model.LabelSupport, 0.4, model.VerdictPartiallySupported, 0.4},
		{model.LabelSupport, 0.2, model.VerdictUnverified, 0.10},
		{model.LabelContradict, 0.9, model.VerdictUnverified, 0.9},
		{model.LabelContradict, 0.1, model.VerdictUnverified, 0.8},
		{model.LabelNeutral, 0.9, model.VerdictUnverified, 0.10},
	}

	for _, tt := range tests {
		got := Aggregate(claim, verification(tt.label, tt.score), policy)
		if got.Verdict != tt.wantVerdict || got.Confidence != tt.wantConfidence {
			t.Errorf("%s@%v: got (%s, %v), want (%s, %v)", tt.label, tt.score, got.Verdict, got.Confidence, tt.wantVerdict, tt.wantConfidence)
		}
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	if err != nil || p.Version() != BinaryV1 {
		t.Errorf("empty name: got (%v, %v), want binary-v1", p, err)
	}

	p, err = PolicyByName(" Graded-V2 ")
	if err != nil || p.Version() != GradedV2 {
		t.Errorf("graded-v2: got (%v, %v)", p, err)
	}

	_, err = PolicyByName("ternary-v3")
	var cfgErr *fault.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}
