package guard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
	}{
		{"empty path", []Route{{Path: ""}}},
		{"relative path", []Route{{Path: "dashboard"}}},
		{"public and feature-gated", []Route{{Path: "/x", Public: true, Feature: "Integrations"}}},
		{"invalid on_denied", []Route{{Path: "/x", Feature: "Integrations", OnDenied: "explode"}}},
		{"duplicate path", []Route{{Path: "/x"}, {Path: "/x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.routes); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestLookup(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		path        string
		wantPublic  bool
		wantFeature string
	}{
		{"/", true, ""},
		{"/login", true, ""},
		{"/auth/callback", true, ""},
		{"/dashboard", false, ""},
		{"/reviews", false, ""},
		{"/reviews/r_0042", false, ""},          // inherits /reviews
		{"/analytics", false, "Advanced Analytics"},
		{"/analytics/exports/monthly", false, "Advanced Analytics"}, // inherits /analytics
		{"/branding", false, "Custom Branding"},
		{"/totally/unknown", false, ""}, // deny-by-default: protected
		{"", true, ""},                  // empty normalizes to /
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route := table.Lookup(tt.path)
			if route.Public != tt.wantPublic {
				t.Errorf("Lookup(%q).Public = %v, want %v", tt.path, route.Public, tt.wantPublic)
			}
			if route.Feature != tt.wantFeature {
				t.Errorf("Lookup(%q).Feature = %q, want %q", tt.path, route.Feature, tt.wantFeature)
			}
		})
	}
}

func TestLookup_WalkUpDoesNotReachRoot(t *testing.T) {
	// / is public, but unknown top-level paths must not inherit that
	route := DefaultTable().Lookup("/admin")
	if route.Public {
		t.Error("/admin inherited the public root classification")
	}
}

func TestLoadTableFile(t *testing.T) {
	yamlTable := `routes:
  - path: /
    public: true
  - path: /pricing
    public: true
  - path: /exports
    feature: Advanced Analytics
    on_denied: upgrade
  - path: /theme
    feature: Custom Branding
    on_denied: locked
`
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte(yamlTable), 0644); err != nil {
		t.Fatalf("failed to write table file: %v", err)
	}

	table, err := LoadTableFile(path)
	if err != nil {
		t.Fatalf("LoadTableFile: %v", err)
	}

	if route := table.Lookup("/pricing"); !route.Public {
		t.Error("/pricing should be public")
	}
	if route := table.Lookup("/exports"); route.Feature != "Advanced Analytics" {
		t.Errorf("/exports feature = %q", route.Feature)
	}
	if route := table.Lookup("/theme"); route.OnDenied != DeniedLocked {
		t.Errorf("/theme on_denied = %q", route.OnDenied)
	}
}

func TestLoadTable_InvalidYAML(t *testing.T) {
	if _, err := LoadTable([]byte("routes: [not a route")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
