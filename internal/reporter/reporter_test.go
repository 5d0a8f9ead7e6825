package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kluth/extension-auditter/internal/analyzer"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

func sampleResult() *pipeline.AggregateResult {
	return &pipeline.AggregateResult{
		RunID:  "run-42",
		Status: pipeline.StateCompleted,
		Scores: map[string]float64{
			analyzer.StageMetadata:     7.0,
			analyzer.StagePermissions:  3.5,
			analyzer.StageCodeBehavior: 2.0,
			analyzer.StageNetwork:      5.0,
			analyzer.StageThreatIntel:  5.0,
			analyzer.StageCVE:          6.0,
			analyzer.StageInsight:      4.2,
		},
		FinalScore: 18.3,
		Verdict:    pipeline.VerdictNeedsReview,
		Bonuses:    map[string]float64{"verified_publisher": 2},
		Maluses:    map[string]float64{"outdated_18m": -1.5},
		Results: map[string]*analyzer.StageResult{
			analyzer.StagePermissions: {
				Score: 3.5,
				Findings: []analyzer.Finding{
					{Kind: analyzer.KindNegative, Message: "Critical permission: debugger", Severity: analyzer.SeverityCritical, Category: "permissions"},
				},
			},
			analyzer.StageCodeBehavior: {
				Score: 2.0,
				Findings: []analyzer.Finding{
					{Kind: analyzer.KindNegative, Message: "Dynamic code evaluation", Severity: analyzer.SeverityHigh, File: "bg.js", Matches: 3},
				},
			},
			analyzer.StageNetwork: {
				Score: 5.0,
				Findings: []analyzer.Finding{
					{Kind: analyzer.KindNegative, Message: "Tracking domain contacted", Severity: analyzer.SeverityMedium, Domains: []string{"tracker.example.com"}},
				},
			},
			analyzer.StageInsight: {
				Score: 4.2,
				Data: map[string]any{
					"summary":             "MEDIUM RISK: review before installing.",
					"contextual_analysis": []string{"The extension uses dynamic code evaluation."},
					"recommendations":     []string{"Review the flagged scripts."},
					"attack_scenarios": []analyzer.AttackScenario{
						{Title: "Data Exfiltration", Description: "Collected data leaves the browser.", Likelihood: "Medium", Impact: "High"},
					},
				},
				Findings: []analyzer.Finding{
					{Kind: analyzer.KindPositive, Message: "Synthesis shows manageable risk profile", Severity: analyzer.SeverityLow},
				},
			},
		},
		PackageSize: 2048,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 6, 1, 12, 0, 3, 0, time.UTC),
	}
}

func TestRenderTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTerminal)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-42",
		"18.3/50",
		"MANUAL REVIEW RECOMMENDED",
		"1 CRITICAL",
		"1 HIGH",
		"Critical permission: debugger",
		"verified_publisher",
		"outdated_18m",
		"Data Exfiltration",
		"Review the flagged scripts.",
		"Completed at 2025-06-01T12:00:03Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
}

func TestRenderTerminalSortsFindingsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatTerminal)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	critical := strings.Index(out, "Critical permission: debugger")
	high := strings.Index(out, "Dynamic code evaluation")
	medium := strings.Index(out, "Tracking domain contacted")
	if critical == -1 || high == -1 || medium == -1 {
		t.Fatal("expected all findings in output")
	}
	if !(critical < high && high < medium) {
		t.Errorf("findings not severity-sorted: critical=%d high=%d medium=%d", critical, high, medium)
	}
}

func TestRenderTerminalCleanRun(t *testing.T) {
	res := sampleResult()
	res.Results = map[string]*analyzer.StageResult{}
	res.Verdict = pipeline.VerdictSafe
	res.Bonuses = nil
	res.Maluses = nil

	var buf bytes.Buffer
	r := New(&buf, FormatTerminal)
	if err := r.Render(res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No findings") {
		t.Error("clean run should report no findings")
	}
	if !strings.Contains(buf.String(), "SAFE TO INSTALL") {
		t.Error("safe verdict headline missing")
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatJSON)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}

	var back pipeline.AggregateResult
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back.RunID != "run-42" {
		t.Errorf("run_id = %q", back.RunID)
	}
	if back.FinalScore != 18.3 {
		t.Errorf("final_score = %v", back.FinalScore)
	}
	if back.Verdict != pipeline.VerdictNeedsReview {
		t.Errorf("verdict = %v", back.Verdict)
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatMarkdown)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Extension Analysis Report",
		"| Stage | Score |",
		"| permissions | 3.5 |",
		"### 🛑 [critical] Critical permission: debugger",
		"- [ ] Review the flagged scripts.",
		"`outdated_18m`: -1.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestRenderPDFProducesDocument(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatPDF)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
	if buf.Len() < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", buf.Len())
	}
}

func TestRenderSARIF(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, FormatSARIF)
	if err := r.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if log.Version != "2.1.0" {
		t.Errorf("version = %q", log.Version)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("got %d runs", len(log.Runs))
	}

	run := log.Runs[0]
	if run.Tool.Driver.Name != "extension-auditter" {
		t.Errorf("driver name = %q", run.Tool.Driver.Name)
	}
	if len(run.Results) != 4 {
		t.Errorf("got %d results, want 4", len(run.Results))
	}

	levels := map[string]string{}
	uris := map[string]string{}
	for _, res := range run.Results {
		levels[res.Message.Text] = res.Level
		if len(res.Locations) > 0 {
			uris[res.Message.Text] = res.Locations[0].PhysicalLocation.ArtifactLocation.URI
		}
	}
	if levels["[critical] Critical permission: debugger"] != "error" {
		t.Errorf("critical finding level = %q", levels["[critical] Critical permission: debugger"])
	}
	// Positive findings are always notes.
	if levels["[low] Synthesis shows manageable risk profile"] != "note" {
		t.Errorf("positive finding level = %q", levels["[low] Synthesis shows manageable risk profile"])
	}
	if uris["[high] Dynamic code evaluation"] != "bg.js" {
		t.Errorf("file-scoped finding uri = %q", uris["[high] Dynamic code evaluation"])
	}
	if uris["[critical] Critical permission: debugger"] != "manifest.json" {
		t.Errorf("manifest-scoped finding uri = %q", uris["[critical] Critical permission: debugger"])
	}
}

func TestDefaultFormatIsTerminal(t *testing.T) {
	r := New(nil, "")
	if r.format != FormatTerminal {
		t.Errorf("default format = %q", r.format)
	}
}

func TestVerdictHeadlineCoversAllVerdicts(t *testing.T) {
	verdicts := []pipeline.Verdict{
		pipeline.VerdictSafe,
		pipeline.VerdictNeedsReview,
		pipeline.VerdictHighRisk,
		pipeline.VerdictBlock,
		pipeline.VerdictMalicious,
	}
	seen := map[string]bool{}
	for _, v := range verdicts {
		h := verdictHeadline(v)
		if h == "" {
			t.Errorf("empty headline for %v", v)
		}
		if seen[h] {
			t.Errorf("duplicate headline %q", h)
		}
		seen[h] = true
	}
}

func TestCollectFindingsOrder(t *testing.T) {
	all := collectFindings(sampleResult())
	if len(all) != 4 {
		t.Fatalf("got %d findings", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Severity > all[i-1].Severity {
			t.Errorf("findings not sorted at %d: %v after %v", i, all[i].Severity, all[i-1].Severity)
		}
	}
	if all[0].Stage != analyzer.StagePermissions {
		t.Errorf("highest severity finding from %q, want permissions", all[0].Stage)
	}
}
