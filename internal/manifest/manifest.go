package manifest

import (
	"encoding/json"
	"fmt"
)

// Manifest is the extension's self-declared metadata document. No schema is
// enforced: stores accept a wide range of manifest shapes, so every accessor
// reads defensively and treats missing or mistyped fields as absent.
type Manifest map[string]any

// Parse decodes a manifest.json document.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

func (m Manifest) str(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Name returns the declared extension name, or an empty string.
func (m Manifest) Name() string { return m.str("name") }

// Version returns the declared version, or an empty string.
func (m Manifest) Version() string { return m.str("version") }

// Description returns the declared description, or an empty string.
func (m Manifest) Description() string { return m.str("description") }

// Author returns the declared author. Some manifests use an object with an
// email field instead of a plain string.
func (m Manifest) Author() string {
	switch v := m["author"].(type) {
	case string:
		return v
	case map[string]any:
		if email, ok := v["email"].(string); ok {
			return email
		}
	}
	return ""
}

// Permissions returns the declared permission list.
func (m Manifest) Permissions() []string { return permissionList(m["permissions"]) }

// HostPermissions returns the declared host permission list (manifest v3).
func (m Manifest) HostPermissions() []string { return permissionList(m["host_permissions"]) }

// OptionalPermissions returns the optional permission list.
func (m Manifest) OptionalPermissions() []string { return permissionList(m["optional_permissions"]) }

// AllPermissions combines declared, host, and optional permissions in
// declaration order.
func (m Manifest) AllPermissions() []string {
	var all []string
	all = append(all, m.Permissions()...)
	all = append(all, m.HostPermissions()...)
	all = append(all, m.OptionalPermissions()...)
	return all
}

// permissionList flattens a manifest permission value. Entries are usually
// plain strings, but structured grants ({"permission": "tabs"}) appear in
// some store listings; anything else is stringified so it still shows up in
// the audit trail.
func permissionList(v any) []string {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		switch p := e.(type) {
		case string:
			out = append(out, p)
		case map[string]any:
			if name, ok := p["permission"].(string); ok {
				out = append(out, name)
			} else {
				out = append(out, fmt.Sprintf("%v", p))
			}
		default:
			out = append(out, fmt.Sprintf("%v", p))
		}
	}
	return out
}
