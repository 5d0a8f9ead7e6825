// Package analyzer implements the scoring stages of the risk pipeline. Every
// stage starts from a neutral 5.0, applies additive adjustments for what it
// observes, and clamps the result to [0,10]. Stages are pure with respect to
// each other: a stage may read prior results it declared via Requires but
// never mutates them.
package analyzer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/manifest"
	"github.com/kluth/extension-auditter/internal/patterns"
)

// Stage names as they appear in scores, weights, and reports.
const (
	StageMetadata     = "metadata"
	StagePermissions  = "permissions"
	StageCodeBehavior = "code_behavior"
	StageNetwork      = "network"
	StageThreatIntel  = "threat_intel"
	StageCVE          = "cve"
	StageInsight      = "ai"
)

// Severity represents the severity level of a finding.
type Severity int

const (
	// SeverityLow indicates an informational finding or minor risk.
	SeverityLow Severity = iota
	// SeverityMedium indicates a moderate risk that should be reviewed.
	SeverityMedium
	// SeverityHigh indicates a serious risk that needs immediate attention.
	SeverityHigh
	// SeverityCritical indicates a verified malicious pattern or critical exposure.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes a severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func severityFromTier(t patterns.Tier) Severity {
	switch t {
	case patterns.TierCritical:
		return SeverityCritical
	case patterns.TierHigh:
		return SeverityHigh
	case patterns.TierMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Finding kinds.
const (
	KindPositive = "positive"
	KindNegative = "negative"
)

// Finding is a single structured observation emitted by a stage.
type Finding struct {
	Kind     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Category string   `json:"category,omitempty"`
	File     string   `json:"file,omitempty"`
	Matches  int      `json:"matches,omitempty"`
	URLs     []string `json:"urls,omitempty"`
	Domains  []string `json:"domains,omitempty"`
}

// StageResult is the immutable output of one stage.
type StageResult struct {
	Score    float64        `json:"score"`
	Data     map[string]any `json:"data"`
	Findings []Finding      `json:"findings"`

	// Bonuses and maluses are named deltas the orchestrator re-applies
	// outside the per-stage clamp. Only the metadata stage populates them.
	Bonuses map[string]float64 `json:"bonuses,omitempty"`
	Maluses map[string]float64 `json:"maluses,omitempty"`

	// Hand-offs to dependent stages. Not part of the persisted result.
	Inventory []ScriptFile `json:"-"`
	Domains   []string     `json:"-"`
}

// Input carries the normalized package artifacts every stage reads.
type Input struct {
	Manifest   manifest.Manifest
	Dir        string
	Reputation *intel.ReputationRecord
}

// Stage is one analyzer in the pipeline DAG. Requires names the stages whose
// results must be present in prior before Analyze runs.
type Stage interface {
	Name() string
	Requires() []string
	Analyze(ctx context.Context, in *Input, prior map[string]*StageResult) (*StageResult, error)
}

// ScriptFile is one script source from the extracted tree.
type ScriptFile struct {
	Path    string
	Content string
}

// LoadScripts walks the extracted tree and reads every .js source. Unreadable
// files are skipped; a partially scanned tree is better than a failed stage.
func LoadScripts(dir string) []ScriptFile {
	var scripts []ScriptFile
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".js") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		scripts = append(scripts, ScriptFile{Path: rel, Content: string(content)})
		return nil
	})
	return scripts
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}
