package analyzer

import (
	"context"
	"testing"

	"github.com/kluth/extension-auditter/internal/patterns"
)

func TestNetworkNoExternalRequests(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "local.js", `fetch("chrome-extension://abc/page.html"); const x = "http://localhost:8080/dev";`)

	stage := NewNetworkStage(patterns.Default())
	res, err := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 5 + 2 (no external) = 7
	if res.Score != 7.0 {
		t.Errorf("score = %v, want 7.0", res.Score)
	}
	if res.Score < 5.0 {
		t.Error("no external traffic must never score below neutral")
	}
	if len(res.Domains) != 0 {
		t.Errorf("unexpected domain hand-off: %v", res.Domains)
	}
}

func TestNetworkLimitedSecureConnections(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "api.js", `fetch("https://api.example.com/v1/data");`)

	stage := NewNetworkStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	// 5 + 1 (<=3 domains, all https) = 6
	if res.Score != 6.0 {
		t.Errorf("score = %v, want 6.0", res.Score)
	}
	if len(res.Domains) != 1 || res.Domains[0] != "api.example.com" {
		t.Errorf("domain hand-off = %v", res.Domains)
	}
}

func TestNetworkInsecureURLs(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "leak.js", `xhr.open("GET", "http://plain.example.com/beacon");`)

	stage := NewNetworkStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	// 5 - 2 (insecure) = 3; the secure-connections bonus must not apply.
	if res.Score != 3.0 {
		t.Errorf("score = %v, want 3.0", res.Score)
	}

	var urls []string
	for _, f := range res.Findings {
		if f.Kind == KindNegative {
			urls = f.URLs
		}
	}
	if len(urls) != 1 {
		t.Errorf("insecure URL payload = %v", urls)
	}
}

func TestNetworkTrackingDomains(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "track.js", `img.src = "https://www.google-analytics.com/collect?v=1";`)

	stage := NewNetworkStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	// 5 - 1 (tracking) + 1 (<=3 domains, https) = 5
	if res.Score != 5.0 {
		t.Errorf("score = %v, want 5.0", res.Score)
	}
	if res.Data["tracking_domains"].(int) != 1 {
		t.Errorf("tracking_domains = %v", res.Data["tracking_domains"])
	}
}

func TestNetworkManyDomainsPenalty(t *testing.T) {
	dir := t.TempDir()
	content := ""
	hosts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	for _, h := range hosts {
		content += `fetch("https://` + h + `.example.com/x");` + "\n"
	}
	writeScript(t, dir, "spray.js", content)

	stage := NewNetworkStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	// 5 - 1 (>10 domains) = 4
	if res.Score != 4.0 {
		t.Errorf("score = %v, want 4.0", res.Score)
	}
	if res.Data["unique_domains"].(int) != 11 {
		t.Errorf("unique_domains = %v", res.Data["unique_domains"])
	}
}

func TestNetworkDomainHandOffCapped(t *testing.T) {
	dir := t.TempDir()
	content := ""
	for i := 0; i < 25; i++ {
		content += `fetch("https://host` + string(rune('a'+i)) + `.example.com/");` + "\n"
	}
	writeScript(t, dir, "many.js", content)

	stage := NewNetworkStage(patterns.Default())
	res, _ := stage.Analyze(context.Background(), &Input{Dir: dir}, nil)
	if len(res.Domains) != domainDisplayCap {
		t.Errorf("hand-off size = %d, want %d", len(res.Domains), domainDisplayCap)
	}
}

func TestURLDomain(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://api.example.com/v1/data", "api.example.com"},
		{"http://plain.example.com", "plain.example.com"},
		{"https://host/", "host"},
		{"nonsense", ""},
	}
	for _, c := range cases {
		if got := urlDomain(c.url); got != c.want {
			t.Errorf("urlDomain(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
