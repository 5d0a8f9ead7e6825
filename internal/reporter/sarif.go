package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/kluth/extension-auditter/internal/analyzer"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

const sarifSchema = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/os/schemas/sarif-schema-2.1.0.json"

// Minimal subset of SARIF 2.1.0. One rule per stage, one result per finding.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationUri string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifRuleProperties struct {
	Tags     []string `json:"tags,omitempty"`
	Severity string   `json:"security-severity,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

func (r *Reporter) renderSARIF(res *pipeline.AggregateResult) error {
	driver := sarifDriver{
		Name:           "extension-auditter",
		Version:        "1.0.0",
		InformationUri: "https://github.com/kluth/extension-auditter",
		Rules:          []sarifRule{},
	}
	results := []sarifResult{}
	seenRules := map[string]bool{}

	for _, f := range collectFindings(res) {
		if !seenRules[f.Stage] {
			seenRules[f.Stage] = true
			driver.Rules = append(driver.Rules, sarifRule{
				ID:               f.Stage,
				Name:             f.Stage,
				ShortDescription: sarifMessage{Text: f.Message},
				Properties: sarifRuleProperties{
					Tags:     []string{"security", "browser-extension"},
					Severity: sarifSeverityScore(f.Severity),
				},
			})
		}

		uri := f.File
		if uri == "" {
			uri = "manifest.json"
		}
		results = append(results, sarifResult{
			RuleID:  f.Stage,
			Level:   sarifLevel(f),
			Message: sarifMessage{Text: fmt.Sprintf("[%s] %s", f.Severity, f.Message)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
				},
			}},
		})
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: driver},
			Results: results,
		}},
	})
}

// sarifLevel maps finding severity to a SARIF level. Positive findings are
// informational regardless of their severity tag.
func sarifLevel(f stageFinding) string {
	if f.Kind == analyzer.KindPositive {
		return "note"
	}
	switch f.Severity {
	case analyzer.SeverityCritical, analyzer.SeverityHigh:
		return "error"
	case analyzer.SeverityLow:
		return "note"
	default:
		return "warning"
	}
}

func sarifSeverityScore(s analyzer.Severity) string {
	switch s {
	case analyzer.SeverityCritical:
		return "9.0"
	case analyzer.SeverityHigh:
		return "7.0"
	case analyzer.SeverityMedium:
		return "5.0"
	case analyzer.SeverityLow:
		return "3.0"
	default:
		return "1.0"
	}
}
