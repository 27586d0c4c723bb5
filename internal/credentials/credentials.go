// Package credentials stores the service API token in the OS-native keyring,
// with fallback to environment variables and the config file.
package credentials

import (
	"fmt"
	"os"
	"strings"
)

// Source indicates where a token was retrieved from.
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceConfig      Source = "config"
	SourceNone        Source = "none"
)

// keyringService is the service name tokens are filed under in the keyring.
const keyringService = "yonote"

// TokenInfo describes a resolved token and its provenance.
type TokenInfo struct {
	Token  string
	Source Source
}

// Keyring is the interface for keyring operations.
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager resolves and stores API tokens. The account key is the workspace
// base URL so multiple workspaces can coexist.
type Manager struct {
	keyring     Keyring
	configToken string
}

// ManagerOption is a functional option for Manager.
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation.
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithConfigToken supplies the token from the config file, used as the last
// resolution fallback.
func WithConfigToken(token string) ManagerOption {
	return func(m *Manager) {
		m.configToken = token
	}
}

// NewManager creates a new token manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeAccount reduces a base URL to a stable keyring account key.
func normalizeAccount(baseURL string) string {
	account := strings.TrimSpace(strings.ToLower(baseURL))
	account = strings.TrimPrefix(account, "https://")
	account = strings.TrimPrefix(account, "http://")
	return strings.TrimRight(account, "/")
}

// Set stores a token in the keyring.
func (m *Manager) Set(baseURL, token string) error {
	return m.keyring.Set(keyringService, normalizeAccount(baseURL), token)
}

// Delete removes a stored token.
func (m *Manager) Delete(baseURL string) error {
	return m.keyring.Delete(keyringService, normalizeAccount(baseURL))
}

// Get resolves the token for a workspace: environment first, then keyring,
// then the config file.
func (m *Manager) Get(baseURL string) TokenInfo {
	if token := os.Getenv("YONOTE_TOKEN"); token != "" {
		return TokenInfo{Token: token, Source: SourceEnvironment}
	}
	if token, err := m.keyring.Get(keyringService, normalizeAccount(baseURL)); err == nil && token != "" {
		return TokenInfo{Token: token, Source: SourceKeyring}
	}
	if m.configToken != "" {
		return TokenInfo{Token: m.configToken, Source: SourceConfig}
	}
	return TokenInfo{Source: SourceNone}
}

// Mask returns a token representation safe for display.
func Mask(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
