// Package config handles application configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content.
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"token,omitempty"`
	Workers      int    `yaml:"workers"`
	CacheBackend string `yaml:"cache_backend"` // json or sqlite
	CachePath    string `yaml:"cache_path,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://app.yonote.ru",
		Workers:      20,
		CacheBackend: "json",
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "yonote", "config.yaml"), nil
}

// DefaultCachePath returns the standard cache file location for a backend.
func DefaultCachePath(backend string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	name := "cache.json"
	if backend == "sqlite" {
		name = "cache.db"
	}
	return filepath.Join(dir, "yonote", name), nil
}

// Load reads the config file at path, layering it over defaults and applying
// environment overrides. A missing file yields the defaults; a malformed
// file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv("YONOTE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("YONOTE_TOKEN"); v != "" {
		cfg.Token = v
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = DefaultConfig().CacheBackend
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ResolveCachePath returns the effective cache path for cfg.
func (c *Config) ResolveCachePath() (string, error) {
	if c.CachePath != "" {
		return c.CachePath, nil
	}
	return DefaultCachePath(c.CacheBackend)
}
