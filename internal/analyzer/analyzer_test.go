package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "lib"), 0o755)
	os.WriteFile(filepath.Join(dir, "background.js"), []byte("void 0;"), 0o644)
	os.WriteFile(filepath.Join(dir, "lib", "vendor.js"), []byte("var x;"), 0o644)
	os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644)

	scripts := LoadScripts(dir)
	if len(scripts) != 2 {
		t.Fatalf("got %d scripts, want 2", len(scripts))
	}
	paths := map[string]bool{}
	for _, s := range scripts {
		paths[s.Path] = true
		if s.Content == "" {
			t.Errorf("script %s has empty content", s.Path)
		}
	}
	if !paths["background.js"] || !paths[filepath.Join("lib", "vendor.js")] {
		t.Errorf("unexpected script paths: %v", paths)
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-3, 0},
		{0, 0},
		{5.5, 5.5},
		{10, 10},
		{14, 10},
	}
	for _, c := range cases {
		if got := clampScore(c.in); got != c.want {
			t.Errorf("clampScore(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(Finding{Kind: KindNegative, Message: "x", Severity: SeverityCritical})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if decoded["severity"] != "critical" {
		t.Errorf("severity marshaled as %v, want critical", decoded["severity"])
	}
}
