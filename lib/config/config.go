// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for mapgrab.
type Config struct {
	// Browser configures how the DevTools endpoint is reached.
	Browser BrowserConfig `yaml:"browser"`

	// Fetch configures source map downloads.
	Fetch FetchConfig `yaml:"fetch"`

	// Store configures the run archive.
	Store StoreConfig `yaml:"store"`

	// Collect configures collection windows.
	Collect CollectConfig `yaml:"collect"`
}

// BrowserConfig configures the DevTools connection.
type BrowserConfig struct {
	// Endpoint is the DevTools HTTP endpoint of a browser started
	// with --remote-debugging-port. A bare host:port is accepted.
	// Default: http://127.0.0.1:9222
	Endpoint string `yaml:"endpoint"`
}

// FetchConfig configures source map downloads.
type FetchConfig struct {
	// Timeout bounds each individual map download.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// StoreConfig configures the run archive.
type StoreConfig struct {
	// Path is the SQLite database file holding collected runs.
	// Default: ${HOME}/.cache/mapgrab/runs.db
	Path string `yaml:"path"`

	// Compression selects the payload compression algorithm:
	// none, lz4, or zstd. Default: zstd
	Compression string `yaml:"compression"`

	// PoolSize is the SQLite connection pool size.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// CollectConfig configures collection windows.
type CollectConfig struct {
	// Window is how long a collection window stays open before it
	// is drained and sealed. Default: 10s
	Window string `yaml:"window"`

	// Profile is the path of a JSONC collection profile filtering
	// which script URLs are collected. Empty collects everything.
	Profile string `yaml:"profile"`
}

// Default returns the default configuration. It is a complete working
// config for a browser on the standard DevTools port; a config file
// only needs the fields it changes.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Browser: BrowserConfig{
			Endpoint: "http://127.0.0.1:9222",
		},
		Fetch: FetchConfig{
			Timeout: "30s",
		},
		Store: StoreConfig{
			Path:        filepath.Join(homeDir, ".cache", "mapgrab", "runs.db"),
			Compression: "zstd",
			PoolSize:    4,
		},
		Collect: CollectConfig{
			Window: "10s",
		},
	}
}

// Load loads configuration from the MAPGRAB_CONFIG environment
// variable, falling back to [Default] when it is unset. An explicitly
// named file that cannot be read is an error, never silently ignored.
func Load() (*Config, error) {
	configPath := os.Getenv("MAPGRAB_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth; environment variables do not override
// its values. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	c.Store.Path = expandVars(c.Store.Path)
	c.Collect.Profile = expandVars(c.Collect.Profile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Browser.Endpoint == "" {
		errs = append(errs, fmt.Errorf("browser.endpoint is required"))
	}
	if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("fetch.timeout: %w", err))
	}
	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	switch c.Store.Compression {
	case "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("store.compression must be none, lz4, or zstd"))
	}
	if c.Store.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("store.pool_size must be at least 1"))
	}
	if _, err := time.ParseDuration(c.Collect.Window); err != nil {
		errs = append(errs, fmt.Errorf("collect.window: %w", err))
	}

	return errors.Join(errs...)
}

// FetchTimeout returns Fetch.Timeout parsed. Call Validate first;
// an unparsable value here falls back to 30 seconds.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CollectWindow returns Collect.Window parsed, with the same fallback
// convention as [Config.FetchTimeout].
func (c *Config) CollectWindow() time.Duration {
	d, err := time.ParseDuration(c.Collect.Window)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// EnsureStoreDir creates the directory holding the store database.
func (c *Config) EnsureStoreDir() error {
	dir := filepath.Dir(c.Store.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}
	return nil
}
