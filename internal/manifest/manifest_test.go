package manifest

import (
	"reflect"
	"testing"
)

func TestParseDefensiveAccess(t *testing.T) {
	data := []byte(`{
		"name": "Sample Extension",
		"version": "1.2.3",
		"description": "Does things",
		"author": "dev@example.com",
		"permissions": ["tabs", "storage"],
		"host_permissions": ["https://*.example.com/*"]
	}`)

	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if m.Name() != "Sample Extension" {
		t.Errorf("Name = %q", m.Name())
	}
	if m.Version() != "1.2.3" {
		t.Errorf("Version = %q", m.Version())
	}
	if got := m.Permissions(); !reflect.DeepEqual(got, []string{"tabs", "storage"}) {
		t.Errorf("Permissions = %v", got)
	}
	if got := m.HostPermissions(); !reflect.DeepEqual(got, []string{"https://*.example.com/*"}) {
		t.Errorf("HostPermissions = %v", got)
	}
}

func TestMissingFieldsAreAbsent(t *testing.T) {
	m, err := Parse([]byte(`{"name": "Minimal"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if m.Description() != "" {
		t.Errorf("expected empty description, got %q", m.Description())
	}
	if m.Author() != "" {
		t.Errorf("expected empty author, got %q", m.Author())
	}
	if perms := m.AllPermissions(); len(perms) != 0 {
		t.Errorf("expected no permissions, got %v", perms)
	}
}

func TestMistypedFieldsDoNotError(t *testing.T) {
	m, err := Parse([]byte(`{"name": 42, "permissions": "tabs", "description": ["x"]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Name() != "" {
		t.Errorf("expected empty name for non-string value, got %q", m.Name())
	}
	if perms := m.Permissions(); perms != nil {
		t.Errorf("expected nil permissions for non-list value, got %v", perms)
	}
}

func TestStructuredPermissionGrants(t *testing.T) {
	m, err := Parse([]byte(`{"permissions": [{"permission": "cookies"}, "tabs"]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := m.Permissions()
	want := []string{"cookies", "tabs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Permissions = %v, want %v", got, want)
	}
}

func TestAuthorObjectForm(t *testing.T) {
	m, err := Parse([]byte(`{"author": {"email": "dev@example.com"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Author() != "dev@example.com" {
		t.Errorf("Author = %q", m.Author())
	}
}
