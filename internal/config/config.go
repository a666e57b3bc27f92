// Package config handles user configuration for CogniaLauncher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognia-dev/cognia-launcher/internal/meta"
	"gopkg.in/yaml.v3"
)

// Config holds user configuration loaded from
// ~/.CogniaLauncher/config/settings.yaml.
type Config struct {
	General  GeneralConfig  `yaml:"general"`
	Network  NetworkConfig  `yaml:"network"`
	Security SecurityConfig `yaml:"security"`
	Mirrors  []MirrorConfig `yaml:"mirrors,omitempty"`

	// Output is the default output format (table, json, yaml).
	Output string `yaml:"output"`

	// Quiet suppresses all output except exit code.
	Quiet bool `yaml:"quiet"`

	// Aliases maps short names to full command strings.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Groups maps group names to their configuration. Plugins in a
	// group are accessed as: cognia <group> <plugin> <operation>
	Groups map[string]GroupConfig `yaml:"groups,omitempty"`
}

// GeneralConfig holds the launcher's core operating parameters.
type GeneralConfig struct {
	ParallelDownloads int  `yaml:"parallel_downloads"`
	CacheMaxSize      int64 `yaml:"cache_max_size"`
	CacheMaxAgeDays   int  `yaml:"cache_max_age_days"`
	AutoCleanCache    bool `yaml:"auto_clean_cache"`
}

// NetworkConfig controls the download engine's HTTP client behavior.
type NetworkConfig struct {
	Timeout  string   `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
	Proxy    string   `yaml:"proxy,omitempty"`
	NoProxy  []string `yaml:"no_proxy,omitempty"`
}

// SecurityConfig controls TLS and transport trust decisions.
type SecurityConfig struct {
	AllowHTTP         bool `yaml:"allow_http"`
	VerifyCertificates bool `yaml:"verify_certificates"`
	AllowSelfSigned   bool `yaml:"allow_self_signed"`
}

// MirrorConfig names an alternate download source for a provider.
type MirrorConfig struct {
	ProviderID string `yaml:"provider_id"`
	URL        string `yaml:"url"`
}

// GroupConfig defines a named plugin group.
type GroupConfig struct {
	Description string   `yaml:"description"`
	Plugins     []string `yaml:"plugins"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			ParallelDownloads: 4,
			CacheMaxSize:      10 << 30, // 10 GiB
			CacheMaxAgeDays:   30,
			AutoCleanCache:    false,
		},
		Network: NetworkConfig{
			Timeout: "30s",
			Retries: 3,
		},
		Security: SecurityConfig{
			AllowHTTP:          false,
			VerifyCertificates: true,
			AllowSelfSigned:    false,
		},
		Output: "table",
	}
}

// Load reads configuration from the given path.
// Returns DefaultConfig if the file doesn't exist.
// Returns an error only if the file exists but is malformed.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// DefaultConfigPath returns the default settings file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config", "settings.yaml")
}

// DefaultConfigDir returns the default root directory,
// ~/.CogniaLauncher/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+meta.AppName)
	}
	return filepath.Join(home, "."+meta.AppName)
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables (higher priority than the settings file) use the
// COGNIALAUNCHER_ prefix, e.g. COGNIALAUNCHER_OUTPUT, COGNIALAUNCHER_NETWORK_TIMEOUT.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(meta.EnvPrefix + "OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv(meta.EnvPrefix + "NETWORK_TIMEOUT"); v != "" {
		c.Network.Timeout = v
	}
	if v := os.Getenv(meta.EnvPrefix + "NETWORK_PROXY"); v != "" {
		c.Network.Proxy = v
	}
	if v := os.Getenv(meta.EnvPrefix + "GENERAL_PARALLEL_DOWNLOADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.General.ParallelDownloads = n
		}
	}
}

// reservedCommands lists built-in command names that cannot be used as group names.
var reservedCommands = map[string]bool{
	"completion": true,
	"version":    true,
	"plugin":     true,
	"provider":   true,
	"download":   true,
	"cache":      true,
	"shim":       true,
	"config":     true,
	"group":      true,
	"help":       true,
}

// ValidateGroups checks group configuration for errors. Only checks for
// critical errors (empty name, reserved name); empty plugin lists are
// allowed since groups may be in the process of being configured.
func (c *Config) ValidateGroups() error {
	for name := range c.Groups {
		if name == "" {
			return fmt.Errorf("group name cannot be empty")
		}
		if reservedCommands[name] {
			return fmt.Errorf("group name %q conflicts with built-in command", name)
		}
	}
	return nil
}

// Save writes the config to the given path as YAML, creating parent
// directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Get reads a dotted settings key (e.g. "general.parallel_downloads",
// "network.timeout", "output"), the form the wasmhost config_read ABI
// group and the config CLI subcommand both use. ok is false for an
// unrecognized key.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case "output":
		return c.Output, true
	case "quiet":
		return strconv.FormatBool(c.Quiet), true
	case "general.parallel_downloads":
		return strconv.Itoa(c.General.ParallelDownloads), true
	case "general.cache_max_size":
		return strconv.FormatInt(c.General.CacheMaxSize, 10), true
	case "general.cache_max_age_days":
		return strconv.Itoa(c.General.CacheMaxAgeDays), true
	case "general.auto_clean_cache":
		return strconv.FormatBool(c.General.AutoCleanCache), true
	case "network.timeout":
		return c.Network.Timeout, true
	case "network.retries":
		return strconv.Itoa(c.Network.Retries), true
	case "network.proxy":
		return c.Network.Proxy, true
	case "security.allow_http":
		return strconv.FormatBool(c.Security.AllowHTTP), true
	case "security.verify_certificates":
		return strconv.FormatBool(c.Security.VerifyCertificates), true
	case "security.allow_self_signed":
		return strconv.FormatBool(c.Security.AllowSelfSigned), true
	default:
		return "", false
	}
}

// Set writes a dotted settings key; see Get for the supported key set.
// Numeric and boolean keys reject a value that fails to parse.
func (c *Config) Set(key, value string) error {
	switch key {
	case "output":
		c.Output = value
	case "quiet":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %q as bool: %w", key, err)
		}
		c.Quiet = b
	case "general.parallel_downloads":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %q as int: %w", key, err)
		}
		c.General.ParallelDownloads = n
	case "general.cache_max_size":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %q as int64: %w", key, err)
		}
		c.General.CacheMaxSize = n
	case "general.cache_max_age_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %q as int: %w", key, err)
		}
		c.General.CacheMaxAgeDays = n
	case "general.auto_clean_cache":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %q as bool: %w", key, err)
		}
		c.General.AutoCleanCache = b
	case "network.timeout":
		c.Network.Timeout = value
	case "network.retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %q as int: %w", key, err)
		}
		c.Network.Retries = n
	case "network.proxy":
		c.Network.Proxy = value
	case "security.allow_http":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %q as bool: %w", key, err)
		}
		c.Security.AllowHTTP = b
	case "security.verify_certificates":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %q as bool: %w", key, err)
		}
		c.Security.VerifyCertificates = b
	case "security.allow_self_signed":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %q as bool: %w", key, err)
		}
		c.Security.AllowSelfSigned = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// keysWithPrefix reports the canonical dotted keys sharing prefix. The
// CLI's "config list" keeps its own key list and does not call it.
func keysWithPrefix(prefix string) []string {
	all := []string{
		"output", "quiet",
		"general.parallel_downloads", "general.cache_max_size",
		"general.cache_max_age_days", "general.auto_clean_cache",
		"network.timeout", "network.retries", "network.proxy",
		"security.allow_http", "security.verify_certificates", "security.allow_self_signed",
	}
	if prefix == "" {
		return all
	}
	var out []string
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
