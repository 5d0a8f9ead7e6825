package analyzer

import (
	"context"
	"fmt"

	"github.com/kluth/extension-auditter/internal/patterns"
)

// CodeBehaviorStage evaluates the behavior signature catalog against every
// script source. The penalty is fixed per matching pattern per file; match
// multiplicity is recorded in the finding but does not compound the score.
type CodeBehaviorStage struct {
	lib *patterns.Library
}

func NewCodeBehaviorStage(lib *patterns.Library) *CodeBehaviorStage {
	return &CodeBehaviorStage{lib: lib}
}

func (c *CodeBehaviorStage) Name() string       { return StageCodeBehavior }
func (c *CodeBehaviorStage) Requires() []string { return nil }

func (c *CodeBehaviorStage) Analyze(ctx context.Context, in *Input, _ map[string]*StageResult) (*StageResult, error) {
	scripts := LoadScripts(in.Dir)

	var findings []Finding
	score := 5.0
	totalMatches := 0

	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range c.lib.Behavior {
			pattern := &c.lib.Behavior[i]
			matches := pattern.Match(script.Content)
			if len(matches) == 0 {
				continue
			}
			totalMatches += len(matches)

			switch pattern.Severity {
			case patterns.TierHigh, patterns.TierCritical:
				score -= 1.5
			case patterns.TierMedium:
				score--
			case patterns.TierLow:
				score -= 0.5
			}

			findings = append(findings, Finding{
				Kind:     KindNegative,
				Message:  fmt.Sprintf("%s detected in %s", pattern.Name, script.Path),
				Severity: severityFromTier(pattern.Severity),
				Category: pattern.Category,
				File:     script.Path,
				Matches:  len(matches),
			})
		}
	}

	if totalMatches > 10 {
		score -= 2
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("High number of suspicious patterns: %d", totalMatches),
			Severity: SeverityHigh,
			Category: "overall",
		})
	}

	fileNames := make([]string, len(scripts))
	for i, s := range scripts {
		fileNames[i] = s.Path
	}

	return &StageResult{
		Score: clampScore(score),
		Data: map[string]any{
			"total_files_analyzed": len(scripts),
			"total_patterns_found": totalMatches,
			"files":                fileNames,
		},
		Findings:  findings,
		Inventory: scripts,
	}, nil
}
