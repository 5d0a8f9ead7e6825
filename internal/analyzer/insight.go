package analyzer

import (
	"context"
	"fmt"
	"strings"
)

// insightWeights drive the synthesizer's own composite. They intentionally
// differ from the orchestrator's aggregation weights (threat_intel counts
// for more here, and the synthesizer's own score is absent); the two
// composites are distinct signals.
var insightWeights = map[string]float64{
	StageMetadata:     0.15,
	StagePermissions:  0.20,
	StageCodeBehavior: 0.25,
	StageNetwork:      0.15,
	StageThreatIntel:  0.15,
	StageCVE:          0.10,
}

// AttackScenario is one hypothesized abuse path with qualitative odds.
type AttackScenario struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Likelihood  string `json:"likelihood"`
	Impact      string `json:"impact"`
}

type riskBand struct {
	description     string
	recommendations []string
}

var riskBands = map[string]riskBand{
	"low": {
		description: "Minimal security risk",
		recommendations: []string{
			"Extension appears safe for general use",
			"Standard security practices recommended",
			"Regular updates should be maintained",
		},
	},
	"medium": {
		description: "Moderate security concerns",
		recommendations: []string{
			"Review extension permissions carefully",
			"Consider if the functionality justifies the risks",
			"Monitor extension behavior in production",
		},
	},
	"high": {
		description: "Significant security risks",
		recommendations: []string{
			"Extension poses notable security risks",
			"Careful consideration required before installation",
			"Implement additional monitoring and restrictions",
		},
	},
	"critical": {
		description: "Severe security threats",
		recommendations: []string{
			"Extension poses serious security threats",
			"Strongly recommend against installation",
			"If required, isolate in restricted environment",
		},
	},
}

// InsightStage is a deterministic, rule-based synthesizer over all prior
// stage results. No model call is involved; every sentence is produced by
// threshold tests against concrete stage signals.
type InsightStage struct{}

func NewInsightStage() *InsightStage { return &InsightStage{} }

func (s *InsightStage) Name() string { return StageInsight }

func (s *InsightStage) Requires() []string {
	return []string{StageMetadata, StagePermissions, StageCodeBehavior, StageNetwork, StageThreatIntel, StageCVE}
}

func (s *InsightStage) Analyze(_ context.Context, _ *Input, prior map[string]*StageResult) (*StageResult, error) {
	for _, dep := range s.Requires() {
		if _, ok := prior[dep]; !ok {
			return &StageResult{
				Score:    5.0,
				Data:     map[string]any{"error": "insight synthesis failed"},
				Findings: nil,
			}, nil
		}
	}

	composite := 0.0
	for stage, weight := range insightWeights {
		composite += prior[stage].Score * weight
	}
	composite = min(composite, 10)

	level := riskLevel(composite)

	var findings []Finding
	if level == "high" || level == "critical" {
		sev := SeverityHigh
		if level == "critical" {
			sev = SeverityCritical
		}
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("Synthesis identified %s risk factors", level),
			Severity: sev,
		})
	} else {
		findings = append(findings, Finding{
			Kind:     KindPositive,
			Message:  "Synthesis shows manageable risk profile",
			Severity: SeverityLow,
		})
	}

	return &StageResult{
		Score: clampScore(composite),
		Data: map[string]any{
			"risk_level":          level,
			"contextual_analysis": contextualAnalysis(prior),
			"attack_scenarios":    attackScenarios(prior),
			"recommendations":     recommendations(level, prior),
			"summary":             summary(composite, level, prior),
			"explanations":        explanations(prior),
		},
		Findings: findings,
	}, nil
}

func riskLevel(score float64) string {
	switch {
	case score <= 3:
		return "low"
	case score <= 6:
		return "medium"
	case score <= 8:
		return "high"
	default:
		return "critical"
	}
}

func contextualAnalysis(prior map[string]*StageResult) []string {
	var analysis []string

	perms := prior[StagePermissions].Score
	if perms > 7 {
		analysis = append(analysis, "The extension requests extensive permissions that could pose significant security risks. These permissions may allow access to sensitive user data or system resources.")
	} else if perms < 3 {
		analysis = append(analysis, "The extension requests minimal permissions, following the principle of least privilege. This is a positive security indicator.")
	}

	behavior := prior[StageCodeBehavior]
	if behavior.Score > 7 {
		highRisk := 0
		for _, f := range behavior.Findings {
			if f.Severity >= SeverityHigh {
				highRisk++
			}
		}
		if highRisk > 0 {
			analysis = append(analysis, fmt.Sprintf("Code analysis detected %d high-risk patterns including obfuscation, dangerous API usage, or potential injection vulnerabilities.", highRisk))
		}
	} else if behavior.Score < 3 {
		analysis = append(analysis, "Code analysis shows clean patterns with no suspicious behavior detected. The codebase appears to follow security best practices.")
	}

	network := prior[StageNetwork]
	if network.Score > 7 {
		if dataInt(network, "http_urls") > 0 {
			analysis = append(analysis, "The extension makes insecure HTTP requests which could expose sensitive data to interception or tampering.")
		}
		if dataInt(network, "tracking_domains") > 0 {
			analysis = append(analysis, "The extension communicates with known tracking or analytics domains, which may compromise user privacy.")
		}
	} else if network.Score < 3 {
		analysis = append(analysis, "The extension shows minimal network activity and uses secure communication protocols, indicating good privacy practices.")
	}

	if prior[StageThreatIntel].Score > 7 {
		analysis = append(analysis, "Threat intelligence sources have identified potential security concerns with this extension's network endpoints or behavior patterns.")
	}

	return analysis
}

func attackScenarios(prior map[string]*StageResult) []AttackScenario {
	var scenarios []AttackScenario

	network := prior[StageNetwork]
	if dataInt(network, "external_urls") > 0 {
		likelihood := "Medium"
		if dataInt(network, "http_urls") > 0 {
			likelihood = "High"
		}
		scenarios = append(scenarios, AttackScenario{
			Title:       "Data Exfiltration",
			Description: "The extension could potentially exfiltrate sensitive user data to external servers. This includes browsing history, personal information, or credentials.",
			Likelihood:  likelihood,
			Impact:      "High",
		})
	}

	if dataInt(prior[StageCodeBehavior], "total_patterns_found") > 0 {
		scenarios = append(scenarios, AttackScenario{
			Title:       "Code Injection",
			Description: "The extension may be vulnerable to or capable of code injection attacks, potentially allowing execution of arbitrary JavaScript on web pages.",
			Likelihood:  "Medium",
			Impact:      "High",
		})
	}

	if prior[StagePermissions].Score > 6 {
		scenarios = append(scenarios, AttackScenario{
			Title:       "Privacy Violation",
			Description: "With the requested permissions, the extension could access and collect sensitive user data including browsing history, cookies, and personal information.",
			Likelihood:  "High",
			Impact:      "Medium",
		})
	}

	if prior[StageThreatIntel].Score > 6 {
		scenarios = append(scenarios, AttackScenario{
			Title:       "Malware Distribution",
			Description: "The extension may be involved in malware distribution or communicate with malicious command and control servers.",
			Likelihood:  "Medium",
			Impact:      "Critical",
		})
	}

	return scenarios
}

func recommendations(level string, prior map[string]*StageResult) []string {
	recs := append([]string{}, riskBands[level].recommendations...)

	if prior[StagePermissions].Score > 7 {
		recs = append(recs, "Review and justify each requested permission. Consider if the extension's functionality truly requires such extensive access.")
	}
	if prior[StageCodeBehavior].Score > 6 {
		recs = append(recs, "Investigate the detected code patterns. Consider using static analysis tools for deeper inspection of the codebase.")
	}
	if dataInt(prior[StageNetwork], "http_urls") > 0 {
		recs = append(recs, "Require the developer to use HTTPS for all network communications to protect data in transit.")
	}
	if dataInt(prior[StageNetwork], "tracking_domains") > 0 {
		recs = append(recs, "Evaluate the privacy implications of the tracking domains. Consider implementing additional privacy controls.")
	}

	recs = append(recs,
		"Implement runtime monitoring to detect any unexpected behavior from the extension.",
		"Regularly review and update the extension's security posture as new versions are released.",
	)
	return recs
}

func summary(composite float64, level string, prior map[string]*StageResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This extension has been analyzed and assigned a risk score of %.1f/10, ", composite)
	fmt.Fprintf(&b, "classifying it as %s risk. %s. ", strings.ToUpper(level), riskBands[level].description)

	var keyFindings []string
	if prior[StagePermissions].Score > 7 {
		keyFindings = append(keyFindings, "requests extensive permissions")
	}
	if prior[StageCodeBehavior].Score > 6 {
		keyFindings = append(keyFindings, "contains suspicious code patterns")
	}
	if dataInt(prior[StageNetwork], "http_urls") > 0 {
		keyFindings = append(keyFindings, "uses insecure communications")
	}
	if prior[StageThreatIntel].Score > 6 {
		keyFindings = append(keyFindings, "has threat intelligence indicators")
	}

	if len(keyFindings) > 0 {
		fmt.Fprintf(&b, "Key security concerns include: %s. ", strings.Join(keyFindings, ", "))
	}
	b.WriteString("A detailed breakdown of the analysis is provided in the sections below.")
	return b.String()
}

func explanations(prior map[string]*StageResult) []string {
	var out []string

	perms := prior[StagePermissions].Score
	if perms <= 3 {
		out = append(out, "The extension requests minimal permissions, reducing its potential attack surface and limiting access to sensitive user data.")
	} else if perms >= 7 {
		out = append(out, "The extension requests extensive permissions that could provide access to sensitive user data, browsing history, or system resources.")
	}

	behavior := prior[StageCodeBehavior].Score
	if behavior <= 3 {
		out = append(out, "Static code analysis reveals clean programming patterns with no indicators of obfuscation, injection vulnerabilities, or malicious behavior.")
	} else if behavior >= 7 {
		out = append(out, "Code analysis detected multiple suspicious patterns including potential obfuscation, dangerous API usage, or injection attack vectors.")
	}

	network := prior[StageNetwork].Score
	if network <= 3 {
		out = append(out, "Network analysis shows the extension communicates with a limited number of external domains using secure protocols, indicating good privacy practices.")
	} else if network >= 7 {
		out = append(out, "The extension makes extensive external network connections, some of which may be insecure or involve tracking services, potentially compromising user privacy.")
	}

	return out
}

// dataInt reads an integer fact from a stage's data map.
func dataInt(r *StageResult, key string) int {
	if r == nil {
		return 0
	}
	switch v := r.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
