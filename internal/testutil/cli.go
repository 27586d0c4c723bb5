// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yonote/cmd/yonote/cmd"
	"yonote/internal/credentials"
)

// defaultTestConfig is the minimal config used by most test constructors to ensure isolation.
const defaultTestConfig = "# test config\ncache_backend: json\nworkers: 4\n"

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	service    *FakeService
	keyring    *credentials.MockKeyring
	tmpDir     string
	configPath string
}

// NewCLITest creates a new CLI test helper with an isolated fake workspace.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	cachePath := filepath.Join(tmpDir, "cache", "cache.json")
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Keep host environment out of the test run
	t.Setenv("YONOTE_TOKEN", "")
	t.Setenv("YONOTE_BASE_URL", "")

	// Write a minimal default config to ensure isolation
	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	service := NewFakeService()
	keyring := credentials.NewMockKeyring()

	cfg := &cmd.Config{
		NoPrompt:   true,
		ConfigPath: configPath,
		CachePath:  cachePath,
		Keyring:    keyring,
		Service:    service,
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		service:    service,
		keyring:    keyring,
		tmpDir:     tmpDir,
		configPath: configPath,
	}
}

// Config returns the CLI config for direct adjustment.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// Service returns the fake workspace backing this test.
func (c *CLITest) Service() *FakeService {
	return c.service
}

// Keyring returns the mock keyring backing this test.
func (c *CLITest) Keyring() *credentials.MockKeyring {
	return c.keyring
}

// TmpDir returns the test's temporary directory.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the test's config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetFullConfig replaces the entire config file content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output to not contain %q, got:\n%s", unexpected, output)
	}
}
