package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kluth/extension-auditter/internal/patterns"
)

// PermissionStage scores declared, host, and optional permissions against
// the risk-tier table.
type PermissionStage struct {
	lib *patterns.Library
}

func NewPermissionStage(lib *patterns.Library) *PermissionStage {
	return &PermissionStage{lib: lib}
}

func (p *PermissionStage) Name() string       { return StagePermissions }
func (p *PermissionStage) Requires() []string { return nil }

func (p *PermissionStage) Analyze(_ context.Context, in *Input, _ map[string]*StageResult) (*StageResult, error) {
	declared := in.Manifest.Permissions()
	host := in.Manifest.HostPermissions()
	optional := in.Manifest.OptionalPermissions()

	all := make([]string, 0, len(declared)+len(host)+len(optional))
	all = append(all, declared...)
	all = append(all, host...)
	all = append(all, optional...)

	var findings []Finding
	score := 5.0
	riskCounts := map[string]int{"low": 0, "medium": 0, "high": 0, "critical": 0}

	for _, perm := range all {
		if risk, ok := p.lib.PermissionRisks[perm]; ok {
			riskCounts[risk.Tier.String()]++

			switch risk.Tier {
			case patterns.TierCritical:
				score -= 2
				findings = append(findings, Finding{
					Kind:     KindNegative,
					Message:  fmt.Sprintf("Critical permission: %s", perm),
					Severity: SeverityCritical,
					Category: risk.Category,
				})
			case patterns.TierHigh:
				score--
				findings = append(findings, Finding{
					Kind:     KindNegative,
					Message:  fmt.Sprintf("High-risk permission: %s", perm),
					Severity: SeverityHigh,
					Category: risk.Category,
				})
			case patterns.TierMedium:
				score -= 0.5
				findings = append(findings, Finding{
					Kind:     KindNegative,
					Message:  fmt.Sprintf("Medium-risk permission: %s", perm),
					Severity: SeverityMedium,
					Category: risk.Category,
				})
			}
		}

		if isBroadHostPattern(perm) {
			score -= 1.5
			findings = append(findings, Finding{
				Kind:     KindNegative,
				Message:  fmt.Sprintf("Broad host permission: %s", perm),
				Severity: SeverityHigh,
				Category: "host_permissions",
			})
		}
	}

	if riskCounts["critical"] == 0 && riskCounts["high"] == 0 {
		score += 2
		findings = append(findings, Finding{
			Kind:     KindPositive,
			Message:  "No critical or high-risk permissions",
			Severity: SeverityLow,
		})
	}

	return &StageResult{
		Score: clampScore(score),
		Data: map[string]any{
			"permissions":          declared,
			"host_permissions":     host,
			"optional_permissions": optional,
			"risk_distribution":    riskCounts,
			"total_permissions":    len(all),
		},
		Findings: findings,
	}, nil
}

// isBroadHostPattern reports whether a permission grants sweeping host
// access: a URL-scheme pattern with a wildcard, or one too short to name a
// concrete path.
func isBroadHostPattern(perm string) bool {
	if !strings.HasPrefix(perm, "http") {
		return false
	}
	return strings.Contains(perm, "*") || strings.Count(perm, "/") < 4
}
