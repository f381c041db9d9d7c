// ABOUTME: Persisted login identity: client token and username only
// ABOUTME: Reads/writes ~/.mclaunch/auth.json with 0600 permissions; never a password or access token

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// AuthStore is the login identity kept between runs.
type AuthStore struct {
	ClientToken string `json:"client_token,omitempty"`
	Username    string `json:"username,omitempty"`

	mu   sync.Mutex
	path string
}

// LoadAuth reads the default auth file.
func LoadAuth() (*AuthStore, error) {
	return LoadAuthFile(AuthFile())
}

// LoadAuthFile reads path, or returns an empty store if it doesn't exist.
func LoadAuthFile(path string) (*AuthStore, error) {
	store := &AuthStore{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parsing auth file: %w", err)
	}
	return store, nil
}

// EnsureClientToken returns the stored client token, generating one on
// first use. The token identifies this installation to the auth server.
func (a *AuthStore) EnsureClientToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ClientToken == "" {
		a.ClientToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return a.ClientToken
}

// Remember records the identity of a successful login.
func (a *AuthStore) Remember(username, clientToken string) {
	a.mu.Lock()
	a.Username = username
	if clientToken != "" {
		a.ClientToken = clientToken
	}
	a.mu.Unlock()
}

// Save writes the store to disk with restricted permissions.
func (a *AuthStore) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := EnsureDir(filepath.Dir(a.path)); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling auth: %w", err)
	}

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}
