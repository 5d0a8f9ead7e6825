package pipeline

import (
	"encoding/json"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Verdict
	}{
		{0, VerdictSafe},
		{8.5, VerdictSafe},
		{10, VerdictSafe}, // boundary resolves to the lower-risk bucket
		{10.01, VerdictNeedsReview},
		{25, VerdictNeedsReview},
		{25.01, VerdictHighRisk},
		{40, VerdictHighRisk},
		{40.01, VerdictBlock},
		{50, VerdictBlock},
	}
	for _, c := range cases {
		if got := Classify(c.score); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(0)
	for score := 0.0; score <= 50; score += 0.25 {
		v := Classify(score)
		if v < prev {
			t.Fatalf("verdict decreased at score %v: %v after %v", score, v, prev)
		}
		prev = v
	}
}

func TestClassifyNeverProducesMalicious(t *testing.T) {
	for score := -10.0; score <= 60; score += 0.5 {
		if Classify(score) == VerdictMalicious {
			t.Fatalf("Classify(%v) produced the reserved malicious verdict", score)
		}
	}
}

func TestVerdictJSONRoundTrip(t *testing.T) {
	for _, v := range []Verdict{VerdictSafe, VerdictNeedsReview, VerdictHighRisk, VerdictBlock, VerdictMalicious} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		var back Verdict
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != v {
			t.Errorf("round trip %v -> %s -> %v", v, data, back)
		}
	}

	var bad Verdict
	if err := json.Unmarshal([]byte(`"dubious"`), &bad); err == nil {
		t.Error("expected error for unknown verdict name")
	}
}
