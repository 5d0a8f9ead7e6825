package analyzer

import (
	"context"
	"fmt"

	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/patterns"
)

// foundLibrary is a third-party library fingerprinted in the bundle.
type foundLibrary struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	File    string `json:"file"`
}

// CVEStage fingerprints bundled library versions from the code behavior
// stage's file inventory and checks them against the vulnerability source.
// An unavailable source degrades the stage to the neutral score; it never
// fails the run.
type CVEStage struct {
	lib    *patterns.Library
	source intel.VulnerabilitySource
}

func NewCVEStage(lib *patterns.Library, source intel.VulnerabilitySource) *CVEStage {
	return &CVEStage{lib: lib, source: source}
}

func (c *CVEStage) Name() string       { return StageCVE }
func (c *CVEStage) Requires() []string { return []string{StageCodeBehavior} }

func (c *CVEStage) Analyze(ctx context.Context, _ *Input, prior map[string]*StageResult) (*StageResult, error) {
	var inventory []ScriptFile
	if behavior, ok := prior[StageCodeBehavior]; ok {
		inventory = behavior.Inventory
	}

	var libraries []foundLibrary
	for _, script := range inventory {
		for i := range c.lib.LibraryBanners {
			banner := &c.lib.LibraryBanners[i]
			if version := banner.FindVersion(script.Content); version != "" {
				libraries = append(libraries, foundLibrary{
					Name:    banner.Name,
					Version: version,
					File:    script.Path,
				})
			}
		}
	}

	var vulns []intel.Vulnerability
	if c.source != nil {
		for _, lib := range libraries {
			found, err := c.source.Query(ctx, lib.Name, lib.Version)
			if err != nil {
				return &StageResult{
					Score: 5.0,
					Data: map[string]any{
						"error":           "vulnerability lookup unavailable",
						"libraries_found": libraries,
					},
					Findings: nil,
				}, nil
			}
			vulns = append(vulns, found...)
		}
	}

	var findings []Finding
	score := 5.0

	if len(vulns) > 0 {
		score -= 3
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("CVE vulnerabilities found: %d", len(vulns)),
			Severity: SeverityHigh,
		})
	} else {
		score++
		findings = append(findings, Finding{
			Kind:     KindPositive,
			Message:  "No known CVE vulnerabilities found",
			Severity: SeverityLow,
		})
	}

	return &StageResult{
		Score: clampScore(score),
		Data: map[string]any{
			"libraries_found": libraries,
			"cve_count":       len(vulns),
			"cves":            vulns,
		},
		Findings: findings,
	}, nil
}
