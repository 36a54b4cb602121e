package guard

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Denied-state handling for feature-gated routes
const (
	DeniedUpgrade = "upgrade" // redirect to the upgrade call-to-action
	DeniedLocked  = "locked"  // render the route with a locked fallback
)

// Route maps a path to its access requirements. Immutable configuration,
// not session state.
type Route struct {
	Path     string `yaml:"path"`
	Public   bool   `yaml:"public,omitempty"`
	Feature  string `yaml:"feature,omitempty"`
	OnDenied string `yaml:"on_denied,omitempty"` // upgrade (default) or locked
}

// Table is the static route classification table. The guard is its only
// consumer.
type Table struct {
	byPath map[string]Route
}

type tableFile struct {
	Routes []Route `yaml:"routes"`
}

// NewTable builds a table from route entries
func NewTable(routes []Route) (*Table, error) {
	byPath := make(map[string]Route, len(routes))
	for _, r := range routes {
		if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("invalid route path %q", r.Path)
		}
		if r.Public && r.Feature != "" {
			return nil, fmt.Errorf("route %q cannot be public and feature-gated", r.Path)
		}
		switch r.OnDenied {
		case "", DeniedUpgrade, DeniedLocked:
		default:
			return nil, fmt.Errorf("route %q has invalid on_denied %q", r.Path, r.OnDenied)
		}
		if _, dup := byPath[r.Path]; dup {
			return nil, fmt.Errorf("duplicate route %q", r.Path)
		}
		byPath[r.Path] = r
	}
	return &Table{byPath: byPath}, nil
}

// LoadTable parses a YAML route table
func LoadTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}
	return NewTable(f.Routes)
}

// LoadTableFile reads a YAML route table from disk
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return LoadTable(data)
}

// Lookup classifies a path. Matching is exact first, then by walking up
// path segments, so /reviews/abc inherits the /reviews entry. Unknown
// paths classify as protected with no feature requirement.
func (t *Table) Lookup(path string) Route {
	if path == "" {
		path = "/"
	}

	for p := path; ; {
		if r, ok := t.byPath[p]; ok {
			return r
		}
		idx := strings.LastIndex(p, "/")
		if idx <= 0 {
			break
		}
		p = p[:idx]
	}

	// Deny-by-default: unclassified paths require a session
	return Route{Path: path}
}

// DefaultTable is the built-in route classification for the business
// surface
func DefaultTable() *Table {
	table, err := NewTable([]Route{
		{Path: "/", Public: true},
		{Path: "/login", Public: true},
		{Path: "/signup", Public: true},
		{Path: "/auth/callback", Public: true},
		{Path: "/dashboard"},
		{Path: "/reviews"},
		{Path: "/invitations", Feature: "Review Invitations", OnDenied: DeniedUpgrade},
		{Path: "/integrations", Feature: "Integrations", OnDenied: DeniedUpgrade},
		{Path: "/analytics", Feature: "Advanced Analytics", OnDenied: DeniedUpgrade},
		{Path: "/branding", Feature: "Custom Branding", OnDenied: DeniedLocked},
	})
	if err != nil {
		panic(err) // static data, validated by tests
	}
	return table
}
