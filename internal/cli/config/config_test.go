package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
  "servers": [
    {"url": "https://api.acme.test/", "alias": "production"},
    {"url": "https://staging.acme.test", "alias": "staging"}
  ],
  "route_table": "routes.yaml"
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(cfg.Servers))
	}
	// Trailing slashes are normalized away
	if cfg.Servers[0].URL != "https://api.acme.test" {
		t.Errorf("URL = %q, trailing slash not trimmed", cfg.Servers[0].URL)
	}
	if cfg.RouteTable != "routes.yaml" {
		t.Errorf("route_table = %q", cfg.RouteTable)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), ConfigFileName)); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "{not json")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	want := &Config{
		Servers: []Server{
			{URL: "https://api.acme.test", Alias: "production"},
		},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Servers) != 1 || got.Servers[0] != want.Servers[0] {
		t.Errorf("round trip mismatch: %+v", got.Servers)
	}
}

func TestServerLookups(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{URL: "https://api.acme.test", Alias: "production"},
			{URL: "https://staging.acme.test", Alias: "staging"},
		},
	}

	server, err := cfg.GetServerByAlias("staging")
	if err != nil || server.URL != "https://staging.acme.test" {
		t.Errorf("GetServerByAlias = %+v, %v", server, err)
	}
	if _, err := cfg.GetServerByAlias("nope"); err == nil {
		t.Error("expected error for unknown alias")
	}

	server, err = cfg.GetServerByURL("https://api.acme.test/")
	if err != nil || server.Alias != "production" {
		t.Errorf("GetServerByURL = %+v, %v", server, err)
	}
	if _, err := cfg.GetServerByURL("https://other.test"); err == nil {
		t.Error("expected error for unknown URL")
	}
}

func TestGetDefaultServer(t *testing.T) {
	if _, err := (&Config{}).GetDefaultServer(); err == nil {
		t.Error("expected error for zero servers")
	}

	one := &Config{Servers: []Server{{URL: "https://api.acme.test", Alias: "production"}}}
	server, err := one.GetDefaultServer()
	if err != nil || server.Alias != "production" {
		t.Errorf("GetDefaultServer = %+v, %v", server, err)
	}

	two := &Config{Servers: []Server{
		{URL: "https://a.test", Alias: "a"},
		{URL: "https://b.test", Alias: "b"},
	}}
	if _, err := two.GetDefaultServer(); err == nil {
		t.Error("expected error when multiple servers are configured")
	}
}
