package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kluth/extension-auditter/internal/patterns"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// domainDisplayCap bounds the domain list carried in the result data and
// handed to the threat intelligence stage.
const domainDisplayCap = 20

// NetworkStage extracts literal URLs from script sources and classifies
// their domains. Its unique-domain list feeds the threat intelligence stage.
type NetworkStage struct {
	lib *patterns.Library
}

func NewNetworkStage(lib *patterns.Library) *NetworkStage {
	return &NetworkStage{lib: lib}
}

func (n *NetworkStage) Name() string       { return StageNetwork }
func (n *NetworkStage) Requires() []string { return nil }

func (n *NetworkStage) Analyze(ctx context.Context, in *Input, _ map[string]*StageResult) (*StageResult, error) {
	scripts := LoadScripts(in.Dir)

	var allURLs []string
	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		allURLs = append(allURLs, urlPattern.FindAllString(script.Content, -1)...)
	}

	var externalURLs []string
	for _, u := range allURLs {
		if strings.Contains(u, "localhost") || strings.Contains(u, "127.0.0.1") || strings.Contains(u, "chrome-extension") {
			continue
		}
		externalURLs = append(externalURLs, u)
	}

	seen := map[string]bool{}
	var domains []string
	for _, u := range externalURLs {
		if d := urlDomain(u); d != "" && !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}

	var findings []Finding
	score := 5.0

	var httpURLs []string
	for _, u := range externalURLs {
		if strings.HasPrefix(u, "http://") {
			httpURLs = append(httpURLs, u)
		}
	}
	if len(httpURLs) > 0 {
		score -= 2
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("Insecure HTTP URLs found: %d", len(httpURLs)),
			Severity: SeverityHigh,
			URLs:     httpURLs[:min(len(httpURLs), 5)],
		})
	}

	var trackingDomains []string
	for _, d := range domains {
		lower := strings.ToLower(d)
		for _, tracker := range n.lib.TrackingDomains {
			if strings.Contains(lower, tracker) {
				trackingDomains = append(trackingDomains, d)
				break
			}
		}
	}
	if len(trackingDomains) > 0 {
		score--
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("Tracking/analytics domains found: %d", len(trackingDomains)),
			Severity: SeverityMedium,
			Domains:  trackingDomains,
		})
	}

	if len(domains) > 10 {
		score--
		findings = append(findings, Finding{
			Kind:     KindNegative,
			Message:  fmt.Sprintf("Many external domains: %d", len(domains)),
			Severity: SeverityMedium,
		})
	}

	if len(externalURLs) == 0 {
		score += 2
		findings = append(findings, Finding{
			Kind:     KindPositive,
			Message:  "No external network requests",
			Severity: SeverityLow,
		})
	} else if len(domains) <= 3 && len(httpURLs) == 0 {
		score++
		findings = append(findings, Finding{
			Kind:     KindPositive,
			Message:  "Limited and secure external connections",
			Severity: SeverityLow,
		})
	}

	capped := domains[:min(len(domains), domainDisplayCap)]

	return &StageResult{
		Score: clampScore(score),
		Data: map[string]any{
			"total_urls":       len(allURLs),
			"external_urls":    len(externalURLs),
			"unique_domains":   len(domains),
			"http_urls":        len(httpURLs),
			"tracking_domains": len(trackingDomains),
			"domains":          capped,
		},
		Findings: findings,
		Domains:  capped,
	}, nil
}

// urlDomain returns the host portion of an absolute URL literal.
func urlDomain(u string) string {
	parts := strings.SplitN(u, "/", 4)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
