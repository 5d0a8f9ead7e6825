package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kluth/extension-auditter/internal/manifest"
	"github.com/kluth/extension-auditter/internal/patterns"
)

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCodeBehaviorCleanTree(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "clean.js", "const a = 1;\nconsole.log(a);\n")

	stage := NewCodeBehaviorStage(patterns.Default())
	res, err := stage.Analyze(context.Background(), &Input{Manifest: manifest.Manifest{}, Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 5.0 {
		t.Errorf("score = %v, want 5.0", res.Score)
	}
	if res.Score < 5.0 {
		t.Error("clean tree must never score below neutral")
	}
	if len(res.Inventory) != 1 {
		t.Errorf("inventory size = %d, want 1", len(res.Inventory))
	}
}

func TestCodeBehaviorEvalDeduction(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.js", "eval(payload);")

	stage := NewCodeBehaviorStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	// 5 - 1.5 (eval usage, high) = 3.5
	if res.Score != 3.5 {
		t.Errorf("score = %v, want 3.5", res.Score)
	}

	if len(res.Findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(res.Findings))
	}
	f := res.Findings[0]
	if f.File != "bad.js" || f.Matches != 1 || f.Severity != SeverityHigh {
		t.Errorf("unexpected finding: %+v", f)
	}
	if f.Category != "dangerous_api" {
		t.Errorf("category = %q, want dangerous_api", f.Category)
	}
}

func TestCodeBehaviorFixedPenaltyPerPatternPerFile(t *testing.T) {
	dir := t.TempDir()
	// Three eval hits in one file still cost a single 1.5 deduction.
	writeScript(t, dir, "multi.js", "eval(a); eval(b); eval(c);")

	stage := NewCodeBehaviorStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	if res.Score != 3.5 {
		t.Errorf("score = %v, want 3.5", res.Score)
	}
	if res.Findings[0].Matches != 3 {
		t.Errorf("matches = %d, want 3", res.Findings[0].Matches)
	}
}

func TestCodeBehaviorVolumePenalty(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "noisy.js", strings.Repeat("eval(x); ", 12))

	stage := NewCodeBehaviorStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)

	volume := false
	for _, f := range res.Findings {
		if f.Category == "overall" {
			volume = true
		}
	}
	if !volume {
		t.Error("volume penalty finding missing for >10 total matches")
	}
	// 5 - 1.5 (eval) - 2 (volume) = 1.5
	if res.Score != 1.5 {
		t.Errorf("score = %v, want 1.5", res.Score)
	}
}

func TestCodeBehaviorScoreClampedAtZero(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "awful.js",
		`eval(x); atob(y); document.write(z); el.innerHTML = a + b; `+
			`new RTCPeerConnection(); canvas.toDataURL(); navigator.userAgent; `+
			`new FormData(); setTimeout("boom", 1);`)

	stage := NewCodeBehaviorStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	if res.Score < 0 || res.Score > 10 {
		t.Errorf("score %v escaped [0,10]", res.Score)
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0 after heavy deductions", res.Score)
	}
}

func TestCodeBehaviorEmptyTree(t *testing.T) {
	stage := NewCodeBehaviorStage(patterns.Default())
	res, err := stage.Analyze(context.Background(), &Input{Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 5.0 {
		t.Errorf("score = %v, want 5.0", res.Score)
	}
	if res.Data["total_files_analyzed"].(int) != 0 {
		t.Error("expected zero files analyzed")
	}
}
