// Package score turns entailment judgments into verdicts.
//
// The decision table is a named, versioned Policy so a change in thresholds or
// vocabulary is visible in every run that used it.
package score

import (
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/integrity/internal/fault"
	"github.com/ppiankov/integrity/internal/model"
)

// Policy versions
const (
	BinaryV1 = "binary-v1"
	GradedV2 = "graded-v2"
)

// DefaultPolicy is used when no policy is configured
const DefaultPolicy = BinaryV1

// Confidence floors shared by both policies
const (
	decisiveConfidence = 0.8
	neutralConfidence  = 0.10
)

// Policy maps a label and its support/contradiction scores onto a verdict
type Policy interface {
	// Version identifies the decision table, recorded on every run
	Version() string

	// Decide returns the verdict and confidence for one claim.
	// s and c are already clamped to [0,1].
	Decide(label model.Label, s, c float64) (model.Verdict, float64)
}

// binaryV1 yields TRUE, FALSE, or UNVERIFIED
type binaryV1 struct{}

func (binaryV1) Version() string { return BinaryV1 }

func (binaryV1) Decide(label model.Label, s, c float64) (model.Verdict, float64) {
	switch label {
	case model.LabelSupport:
		return model.VerdictTrue, math.Max(decisiveConfidence, s)
	case model.LabelContradict:
		return model.VerdictFalse, math.Max(decisiveConfidence, c)
	default:
		return model.VerdictUnverified, neutralConfidence
	}
}

// Support thresholds for graded-v2
const (
	gradedVerified = 0.75
	gradedPartial  = 0.4
)

// gradedV2 yields VERIFIED, PARTIALLY_SUPPORTED, or UNVERIFIED.
// Contradiction has no verdict of its own and reports UNVERIFIED with high confidence.
type gradedV2 struct{}

func (gradedV2) Version() string { return GradedV2 }

func (gradedV2) Decide(label model.Label, s, c float64) (model.Verdict, float64) {
	switch label {
	case model.LabelSupport:
		switch {
		case s >= gradedVerified:
			return model.VerdictVerified, math.Max(decisiveConfidence, s)
		case s >= gradedPartial:
			return model.VerdictPartiallySupported, s
		default:
			return model.VerdictUnverified, neutralConfidence
		}
	case model.LabelContradict:
		return model.VerdictUnverified, math.Max(decisiveConfidence, c)
	default:
		return model.VerdictUnverified, neutralConfidence
	}
}

var policies = map[string]Policy{
	BinaryV1: binaryV1{},
	GradedV2: gradedV2{},
}

// PolicyByName returns the registered policy. Empty selects DefaultPolicy.
func PolicyByName(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultPolicy
	}
	p, ok := policies[name]
	if !ok {
		return nil, &fault.ConfigurationError{
			Setting: "pipeline.policy",
			Reason:  "unknown verdict policy " + name + " (available: " + strings.Join(PolicyNames(), ", ") + ")",
		}
	}
	return p, nil
}

// PolicyNames lists the registered policies in sorted order
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clamp limits x to [0,1]. NaN becomes 0.
func Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
