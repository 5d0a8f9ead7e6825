package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFallbackRecord(t *testing.T) {
	rec := FallbackRecord()
	if rec.Rating != 4.0 {
		t.Errorf("fallback rating = %v, want 4.0", rec.Rating)
	}
	if rec.Users != 1000 {
		t.Errorf("fallback users = %d, want 1000", rec.Users)
	}
	if rec.VerifiedPublisher {
		t.Error("fallback record must not claim a verified publisher")
	}
	if rec.LastUpdated != "2024-01-01T00:00:00Z" {
		t.Errorf("fallback last_updated = %q", rec.LastUpdated)
	}
}

func TestFileReputationSource(t *testing.T) {
	snapshot := map[string]*ReputationRecord{
		"abc123": {Rating: 4.7, Users: 250000, VerifiedPublisher: true, LastUpdated: "2026-05-01T00:00:00Z"},
	}
	data, _ := json.Marshal(snapshot)
	path := filepath.Join(t.TempDir(), "reputation.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileReputationSource(path)
	if err != nil {
		t.Fatalf("NewFileReputationSource failed: %v", err)
	}

	rec, err := src.Lookup(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec.Rating != 4.7 || !rec.VerifiedPublisher {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := src.Lookup(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown extension ID")
	}
}

func TestOSVSourceQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var q osvQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decoding query: %v", err)
		}
		if q.Package.Ecosystem != "npm" {
			t.Errorf("ecosystem = %q, want npm", q.Package.Ecosystem)
		}
		json.NewEncoder(w).Encode(osvResponse{
			Vulns: []osvVuln{
				{
					ID:      "GHSA-xxxx-yyyy",
					Summary: "Prototype pollution in lodash",
					Severity: []osvSeverity{
						{Type: "CVSS_V3", Score: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"},
					},
				},
			},
		})
	}))
	defer server.Close()

	src := NewOSVSource()
	src.url = server.URL

	vulns, err := src.Query(context.Background(), "lodash", "4.17.10")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(vulns) != 1 {
		t.Fatalf("got %d vulns, want 1", len(vulns))
	}
	if vulns[0].ID != "GHSA-xxxx-yyyy" {
		t.Errorf("vuln ID = %q", vulns[0].ID)
	}
	if vulns[0].Severity != "critical" {
		t.Errorf("severity = %q, want critical", vulns[0].Severity)
	}
	if vulns[0].Library != "lodash" || vulns[0].Version != "4.17.10" {
		t.Errorf("library/version not carried through: %+v", vulns[0])
	}
}

func TestOSVSourceNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := NewOSVSource()
	src.url = server.URL

	if _, err := src.Query(context.Background(), "jquery", "3.0.0"); err == nil {
		t.Error("expected error on non-OK status")
	}
}

func TestCVSSVectorSeverity(t *testing.T) {
	cases := []struct {
		vector string
		want   string
	}{
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", "critical"},
		{"CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:H/I:N/A:N", "high"},
		{"CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:L/I:L/A:N", "medium"},
		{"CVSS:3.1/AV:L/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N", "low"},
		{"", "medium"},
	}
	for _, c := range cases {
		if got := cvssVectorSeverity(c.vector); got != c.want {
			t.Errorf("cvssVectorSeverity(%q) = %q, want %q", c.vector, got, c.want)
		}
	}
}
