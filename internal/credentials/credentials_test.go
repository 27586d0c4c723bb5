package credentials_test

import (
	"testing"

	"yonote/internal/credentials"
)

// TestSetAndGetRoundTrip verifies a stored token resolves from the keyring.
func TestSetAndGetRoundTrip(t *testing.T) {
	t.Setenv("YONOTE_TOKEN", "")

	keyring := credentials.NewMockKeyring()
	manager := credentials.NewManager(credentials.WithKeyring(keyring))

	if err := manager.Set("https://ws.example.com", "secret123"); err != nil {
		t.Fatalf("set: %v", err)
	}

	info := manager.Get("https://ws.example.com")
	if info.Token != "secret123" {
		t.Errorf("expected stored token, got %q", info.Token)
	}
	if info.Source != credentials.SourceKeyring {
		t.Errorf("expected keyring source, got %s", info.Source)
	}
}

// TestAccountNormalization verifies scheme, case and trailing slash do not
// split tokens across different keyring accounts.
func TestAccountNormalization(t *testing.T) {
	t.Setenv("YONOTE_TOKEN", "")

	keyring := credentials.NewMockKeyring()
	manager := credentials.NewManager(credentials.WithKeyring(keyring))

	if err := manager.Set("https://WS.Example.com/", "secret123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	info := manager.Get("http://ws.example.com")
	if info.Token != "secret123" {
		t.Errorf("expected token under normalized account, got %q", info.Token)
	}
}

// TestEnvironmentBeatsKeyring verifies resolution order: environment,
// keyring, config.
func TestEnvironmentBeatsKeyring(t *testing.T) {
	keyring := credentials.NewMockKeyring()
	manager := credentials.NewManager(
		credentials.WithKeyring(keyring),
		credentials.WithConfigToken("configtoken"),
	)
	if err := manager.Set("https://ws.example.com", "keyringtoken"); err != nil {
		t.Fatalf("set: %v", err)
	}

	t.Setenv("YONOTE_TOKEN", "envtoken")
	if info := manager.Get("https://ws.example.com"); info.Source != credentials.SourceEnvironment || info.Token != "envtoken" {
		t.Errorf("expected environment to win, got %+v", info)
	}

	t.Setenv("YONOTE_TOKEN", "")
	if info := manager.Get("https://ws.example.com"); info.Source != credentials.SourceKeyring || info.Token != "keyringtoken" {
		t.Errorf("expected keyring to win without env, got %+v", info)
	}
}

// TestConfigTokenFallback verifies the config token is the last resort.
func TestConfigTokenFallback(t *testing.T) {
	t.Setenv("YONOTE_TOKEN", "")

	manager := credentials.NewManager(
		credentials.WithKeyring(credentials.NewMockKeyring()),
		credentials.WithConfigToken("configtoken"),
	)
	info := manager.Get("https://ws.example.com")
	if info.Source != credentials.SourceConfig || info.Token != "configtoken" {
		t.Errorf("expected config fallback, got %+v", info)
	}
}

// TestGetWithNothingStored verifies the none source.
func TestGetWithNothingStored(t *testing.T) {
	t.Setenv("YONOTE_TOKEN", "")

	manager := credentials.NewManager(credentials.WithKeyring(credentials.NewMockKeyring()))
	info := manager.Get("https://ws.example.com")
	if info.Source != credentials.SourceNone || info.Token != "" {
		t.Errorf("expected empty resolution, got %+v", info)
	}
}

// TestDeleteRemovesToken verifies deletion.
func TestDeleteRemovesToken(t *testing.T) {
	t.Setenv("YONOTE_TOKEN", "")

	keyring := credentials.NewMockKeyring()
	manager := credentials.NewManager(credentials.WithKeyring(keyring))
	if err := manager.Set("https://ws.example.com", "secret123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := manager.Delete("https://ws.example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if info := manager.Get("https://ws.example.com"); info.Source != credentials.SourceNone {
		t.Errorf("expected token gone, got %+v", info)
	}
}

// TestMask verifies tokens are never fully displayed.
func TestMask(t *testing.T) {
	if got := credentials.Mask("short"); got != "****" {
		t.Errorf("expected **** for short token, got %s", got)
	}
	if got := credentials.Mask("abcd1234efgh5678"); got != "abcd...5678" {
		t.Errorf("unexpected mask %s", got)
	}
}
