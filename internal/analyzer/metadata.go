package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MetadataStage scores store reputation signals and manifest completeness.
// It is the only stage that emits named bonus/malus deltas; the orchestrator
// re-applies those outside the per-stage clamp.
type MetadataStage struct{}

func NewMetadataStage() *MetadataStage { return &MetadataStage{} }

func (m *MetadataStage) Name() string       { return StageMetadata }
func (m *MetadataStage) Requires() []string { return nil }

func (m *MetadataStage) Analyze(_ context.Context, in *Input, _ map[string]*StageResult) (*StageResult, error) {
	var findings []Finding
	score := 5.0
	bonuses := map[string]float64{}
	maluses := map[string]float64{}

	rep := in.Reputation
	if rep != nil {
		if rep.Rating >= 4.0 {
			score++
			findings = append(findings, Finding{
				Kind:     KindPositive,
				Message:  fmt.Sprintf("High rating: %.1f/5", rep.Rating),
				Severity: SeverityLow,
			})
		} else if rep.Rating < 3.0 {
			score--
			findings = append(findings, Finding{
				Kind:     KindNegative,
				Message:  fmt.Sprintf("Low rating: %.1f/5", rep.Rating),
				Severity: SeverityMedium,
			})
		}

		if rep.Users > 100000 {
			score++
			findings = append(findings, Finding{
				Kind:     KindPositive,
				Message:  fmt.Sprintf("Large user base: %d users", rep.Users),
				Severity: SeverityLow,
			})
		}

		if rep.LastUpdated != "" {
			if updated, err := time.Parse(time.RFC3339, rep.LastUpdated); err == nil {
				months := time.Since(updated).Hours() / 24 / 30
				if months > 36 {
					score -= 3
					maluses["outdated_36m"] = -3
					findings = append(findings, Finding{
						Kind:     KindNegative,
						Message:  fmt.Sprintf("Very outdated: %.1f months since update", months),
						Severity: SeverityHigh,
					})
				} else if months > 18 {
					score -= 1.5
					maluses["outdated_18m"] = -1.5
					findings = append(findings, Finding{
						Kind:     KindNegative,
						Message:  fmt.Sprintf("Outdated: %.1f months since update", months),
						Severity: SeverityMedium,
					})
				}
			}
		}

		if rep.VerifiedPublisher {
			score += 2
			bonuses["verified_publisher"] = 2
			findings = append(findings, Finding{
				Kind:     KindPositive,
				Message:  "Verified publisher badge",
				Severity: SeverityLow,
			})
		}

		if rep.DUNSNumber != "" {
			score += 2
			bonuses["duns_number"] = 2
			findings = append(findings, Finding{
				Kind:     KindPositive,
				Message:  "D-U-N-S number present",
				Severity: SeverityLow,
			})
		}
	}

	if strings.TrimSpace(in.Manifest.Description()) == "" {
		score -= 0.5
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  "Missing description in manifest",
			Severity: SeverityLow,
		})
	}

	if strings.TrimSpace(in.Manifest.Author()) == "" {
		score -= 0.5
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  "Missing author information",
			Severity: SeverityLow,
		})
	}

	return &StageResult{
		Score: clampScore(score),
		Data: map[string]any{
			"name":        in.Manifest.Name(),
			"version":     in.Manifest.Version(),
			"author":      in.Manifest.Author(),
			"description": in.Manifest.Description(),
			"reputation":  rep,
		},
		Findings: findings,
		Bonuses:  bonuses,
		Maluses:  maluses,
	}, nil
}
