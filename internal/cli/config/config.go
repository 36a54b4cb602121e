package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "reviewd.json"

// Server represents a Reviewd backend the CLI can talk to
type Server struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

// Config represents the project configuration stored in ./reviewd.json
type Config struct {
	Servers []Server `json:"servers"`

	// RouteTable optionally points at a YAML route classification file
	// overriding the built-in table
	RouteTable string `json:"route_table,omitempty"`
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].URL = strings.TrimRight(cfg.Servers[i].URL, "/")
	}

	return &cfg, nil
}

// LoadFromCurrentDir reads ./reviewd.json
func LoadFromCurrentDir() (*Config, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(filepath.Join(currentDir, ConfigFileName))
}

// Save writes the config to the given path
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias finds a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found in %s", alias, ConfigFileName)
}

// GetServerByURL finds a server by its URL
func (c *Config) GetServerByURL(url string) (*Server, error) {
	url = strings.TrimRight(url, "/")
	for i := range c.Servers {
		if c.Servers[i].URL == url {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s' not found in %s", url, ConfigFileName)
}

// GetDefaultServer returns the only configured server, or an error when
// the choice is ambiguous
func (c *Config) GetDefaultServer() (*Server, error) {
	switch len(c.Servers) {
	case 0:
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	case 1:
		return &c.Servers[0], nil
	default:
		return nil, fmt.Errorf("multiple servers configured, use --server or 'reviewd select-server'")
	}
}
