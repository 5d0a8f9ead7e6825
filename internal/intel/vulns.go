package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const osvAPIURL = "https://api.osv.dev/v1/query"

// Vulnerability is one known advisory against a bundled library version.
type Vulnerability struct {
	ID       string `json:"id"`
	Library  string `json:"library"`
	Version  string `json:"version"`
	Severity string `json:"severity"`
	Summary  string `json:"description"`
}

// VulnerabilitySource answers "which advisories apply to this library at
// this version". The dependency stage degrades to a neutral result when the
// source errors, so implementations may fail freely.
type VulnerabilitySource interface {
	Query(ctx context.Context, library, version string) ([]Vulnerability, error)
}

// OSVSource queries the OSV.dev advisory database.
type OSVSource struct {
	httpClient *http.Client
	url        string
}

// NewOSVSource creates an OSV-backed vulnerability source.
func NewOSVSource() *OSVSource {
	return &OSVSource{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        osvAPIURL,
	}
}

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version,omitempty"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvResponse struct {
	Vulns []osvVuln `json:"vulns"`
}

type osvVuln struct {
	ID       string        `json:"id"`
	Summary  string        `json:"summary"`
	Details  string        `json:"details"`
	Severity []osvSeverity `json:"severity,omitempty"`
}

type osvSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

func (s *OSVSource) Query(ctx context.Context, library, version string) ([]Vulnerability, error) {
	// Bundled browser libraries (jquery, lodash, react...) are published on
	// npm, so that is the ecosystem OSV indexes them under.
	query := osvQuery{
		Package: osvPackage{Name: library, Ecosystem: "npm"},
		Version: version,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshaling OSV query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating OSV request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying OSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSV API returned status %d", resp.StatusCode)
	}

	var osvResp osvResponse
	if err := json.NewDecoder(resp.Body).Decode(&osvResp); err != nil {
		return nil, fmt.Errorf("decoding OSV response: %w", err)
	}

	vulns := make([]Vulnerability, 0, len(osvResp.Vulns))
	for _, v := range osvResp.Vulns {
		summary := v.Summary
		if summary == "" {
			summary = v.Details
		}
		if len(summary) > 200 {
			summary = summary[:200] + "..."
		}
		vulns = append(vulns, Vulnerability{
			ID:       v.ID,
			Library:  library,
			Version:  version,
			Severity: classifyOSVSeverity(v),
			Summary:  summary,
		})
	}
	return vulns, nil
}

func classifyOSVSeverity(v osvVuln) string {
	for _, s := range v.Severity {
		if s.Type == "CVSS_V3" {
			return cvssVectorSeverity(s.Score)
		}
	}
	return "medium"
}

// cvssVectorSeverity grades a CVSS v3 vector string. OSV reports vectors,
// not numeric scores, so we read the attack vector, complexity, and impact
// components directly.
func cvssVectorSeverity(vector string) string {
	if vector == "" {
		return "medium"
	}

	hasNetwork := bytes.Contains([]byte(vector), []byte("AV:N"))
	hasLowComplexity := bytes.Contains([]byte(vector), []byte("AC:L"))
	hasHighImpact := bytes.Contains([]byte(vector), []byte("/C:H")) || bytes.Contains([]byte(vector), []byte("/I:H"))

	switch {
	case hasNetwork && hasLowComplexity && hasHighImpact:
		return "critical"
	case hasNetwork && hasHighImpact:
		return "high"
	case hasNetwork:
		return "medium"
	default:
		return "low"
	}
}
