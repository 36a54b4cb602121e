// Package credentials is the client-side credential store: the access
// token lives in the OS keychain, and a small JSON hint file remembers the
// last known session so the UI can render optimistically before the
// backend confirms. The hint is advisory only; it never substitutes for a
// backend round trip.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	service       = "reviewd-cli"
	configDirName = "reviewd"
)

// ErrNotAuthenticated is returned when no token is stored for the server
var ErrNotAuthenticated = errors.New("not authenticated, run 'reviewd login' first")

// Hint is the locally persisted, non-authoritative session snapshot.
// Authenticated=true only means "last backend answer was positive"; a 401
// from the backend always wins over it.
type Hint struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	CompanyID     string `json:"company_id,omitempty"`
}

// Store persists credentials for one server
type Store struct {
	server string
	dir    string
}

// NewStore creates a store rooted at ~/.config/reviewd, keyed by server
func NewStore(server string) (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Store{
		server: server,
		dir:    filepath.Join(homeDir, ".config", configDirName),
	}, nil
}

// NewStoreAt creates a store with an explicit directory, used by tests
func NewStoreAt(server, dir string) *Store {
	return &Store{server: server, dir: dir}
}

func (s *Store) keyringKey() string {
	return fmt.Sprintf("token-%s", s.server)
}

func (s *Store) hintPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("session-%s.json", sanitize(s.server)))
}

// sanitize turns a server URL into a filesystem-safe name
func sanitize(server string) string {
	out := make([]rune, 0, len(server))
	for _, r := range server {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// SaveToken persists the access token in the OS keychain/credential manager
func (s *Store) SaveToken(token string) error {
	if err := keyring.Set(service, s.keyringKey(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the access token from the OS keychain
func (s *Store) LoadToken() (string, error) {
	token, err := keyring.Get(service, s.keyringKey())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the access token from the OS keychain
func (s *Store) DeleteToken() error {
	if err := keyring.Delete(service, s.keyringKey()); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// WriteHint persists the session hint to disk
func (s *Store) WriteHint(hint Hint) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(hint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hint: %w", err)
	}

	if err := os.WriteFile(s.hintPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write hint file: %w", err)
	}

	return nil
}

// ReadHint loads the session hint. A missing or unreadable file reads as
// the zero hint (not authenticated).
func (s *Store) ReadHint() Hint {
	data, err := os.ReadFile(s.hintPath())
	if err != nil {
		return Hint{}
	}

	var hint Hint
	if err := json.Unmarshal(data, &hint); err != nil {
		return Hint{}
	}
	return hint
}

// Clear removes the token and the hint. Called on logout and on an
// authoritative unauthorized answer from the backend.
func (s *Store) Clear() error {
	hintErr := os.Remove(s.hintPath())
	if hintErr != nil && !os.IsNotExist(hintErr) {
		return fmt.Errorf("failed to remove hint file: %w", hintErr)
	}
	return s.DeleteToken()
}
