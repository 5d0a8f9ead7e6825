package pipeline

import "fmt"

// Verdict is the discrete safety classification of a completed run.
type Verdict int

const (
	VerdictSafe Verdict = iota
	VerdictNeedsReview
	VerdictHighRisk
	VerdictBlock
	// VerdictMalicious is reserved for manual override by a reviewer; the
	// classifier never produces it.
	VerdictMalicious
)

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "safe"
	case VerdictNeedsReview:
		return "needs_review"
	case VerdictHighRisk:
		return "high_risk"
	case VerdictBlock:
		return "block"
	case VerdictMalicious:
		return "malicious"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes a verdict as its name.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON decodes a verdict from its name.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"safe"`:
		*v = VerdictSafe
	case `"needs_review"`:
		*v = VerdictNeedsReview
	case `"high_risk"`:
		*v = VerdictHighRisk
	case `"block"`:
		*v = VerdictBlock
	case `"malicious"`:
		*v = VerdictMalicious
	default:
		return fmt.Errorf("unknown verdict %s", data)
	}
	return nil
}

// Classify maps a final score to its verdict. Boundary values resolve to
// the lower-risk bucket.
func Classify(finalScore float64) Verdict {
	switch {
	case finalScore <= 10:
		return VerdictSafe
	case finalScore <= 25:
		return VerdictNeedsReview
	case finalScore <= 40:
		return VerdictHighRisk
	default:
		return VerdictBlock
	}
}
