package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kluth/extension-auditter/internal/patterns"
)

// Domain reputation buckets.
const (
	domainClean         = ""
	domainMalicious     = "known_malicious"
	domainTracking      = "tracking"
	domainSuspiciousTLD = "suspicious_tld"
)

// domainIndicator is one flagged domain in the result data.
type domainIndicator struct {
	Domain   string `json:"domain"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
}

// ThreatIntelStage runs reputation and phishing heuristics over the domain
// list produced by the network stage. Lookups are best-effort: on any
// internal failure the stage reports the neutral score with a note instead
// of failing the run.
type ThreatIntelStage struct {
	lib *patterns.Library

	// classify is swappable so a failing reputation backend can be simulated.
	classify func(domain string) (string, error)
}

func NewThreatIntelStage(lib *patterns.Library) *ThreatIntelStage {
	s := &ThreatIntelStage{lib: lib}
	s.classify = s.classifyAgainstLists
	return s
}

func (t *ThreatIntelStage) Name() string       { return StageThreatIntel }
func (t *ThreatIntelStage) Requires() []string { return []string{StageNetwork} }

func (t *ThreatIntelStage) Analyze(_ context.Context, _ *Input, prior map[string]*StageResult) (*StageResult, error) {
	network, ok := prior[StageNetwork]
	if !ok {
		return t.degraded(), nil
	}

	result, err := t.analyzeDomains(network.Domains, nil)
	if err != nil {
		return t.degraded(), nil
	}
	return result, nil
}

func (t *ThreatIntelStage) degraded() *StageResult {
	return &StageResult{
		Score:    5.0,
		Data:     map[string]any{"error": "threat intel analysis failed"},
		Findings: nil,
	}
}

func (t *ThreatIntelStage) analyzeDomains(domains, urls []string) (*StageResult, error) {
	var findings []Finding
	var indicators []domainIndicator
	impact := 0.0

	for _, domain := range domains {
		class, err := t.classify(domain)
		if err != nil {
			return nil, err
		}

		switch class {
		case domainMalicious:
			indicators = append(indicators, domainIndicator{Domain: domain, Type: domainMalicious, Severity: "high"})
			impact -= 3
			findings = append(findings, intelFinding(fmt.Sprintf("Known malicious domain: %s", domain)))
		case domainTracking:
			indicators = append(indicators, domainIndicator{Domain: domain, Type: domainTracking, Severity: "medium"})
			impact--
			findings = append(findings, intelFinding(fmt.Sprintf("Tracking/analytics domain: %s", domain)))
		case domainSuspiciousTLD:
			indicators = append(indicators, domainIndicator{Domain: domain, Type: domainSuspiciousTLD, Severity: "low"})
			impact -= 0.5
			findings = append(findings, intelFinding(fmt.Sprintf("Suspicious TLD: %s", domain)))
		}
	}

	var insecureURLs []string
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://") {
			insecureURLs = append(insecureURLs, u)
			impact -= 2
			findings = append(findings, intelFinding(fmt.Sprintf("Insecure URL: %s", u)))
		}
	}

	phishing := t.phishingIndicators(domains)
	if len(phishing) > 0 {
		impact -= 2
		for _, msg := range phishing {
			findings = append(findings, intelFinding(msg))
		}
	}

	return &StageResult{
		Score: clampScore(5 + impact),
		Data: map[string]any{
			"malicious_indicators": indicators,
			"malicious_urls":       insecureURLs,
			"phishing_indicators":  phishing,
			"domains_checked":      len(domains),
			"urls_checked":         len(urls),
		},
		Findings: findings,
	}, nil
}

// classifyAgainstLists buckets a domain using the pattern library's curated
// lists. Precedence: malicious beats tracking beats suspicious TLD.
func (t *ThreatIntelStage) classifyAgainstLists(domain string) (string, error) {
	lower := strings.ToLower(domain)

	for _, malicious := range t.lib.MaliciousDomains {
		if strings.Contains(lower, malicious) {
			return domainMalicious, nil
		}
	}
	for _, tracker := range t.lib.TrackingDomains {
		if strings.Contains(lower, tracker) {
			return domainTracking, nil
		}
	}
	for _, tld := range t.lib.SuspiciousTLDs {
		if strings.HasSuffix(lower, tld) {
			return domainSuspiciousTLD, nil
		}
	}
	return domainClean, nil
}

func (t *ThreatIntelStage) phishingIndicators(domains []string) []string {
	var indicators []string

	for _, domain := range domains {
		if isTyposquat(domain, t.lib.PopularDomains) {
			indicators = append(indicators, fmt.Sprintf("Potential typosquatting domain: %s", domain))
		}

		if hasMixedScripts(domain) {
			indicators = append(indicators, fmt.Sprintf("IDN homographs detected in domain: %s", domain))
		}

		lower := strings.ToLower(domain)
		for _, keyword := range t.lib.PhishingKeywords {
			if strings.Contains(lower, keyword) {
				indicators = append(indicators, fmt.Sprintf("Suspicious keywords in domain: %s", domain))
				break
			}
		}
	}

	return indicators
}

func intelFinding(msg string) Finding {
	return Finding{Kind: KindNegative, Message: msg, Severity: SeverityMedium}
}
