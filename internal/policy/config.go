package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable policy parameters. It is loaded once at
// startup and treated as immutable for the process lifetime; changing the
// file requires a restart.
type Config struct {
	BlacklistPaths      []string `yaml:"blacklist_paths"`
	HighRiskActions     []string `yaml:"high_risk_actions"`
	RequireConfirmation bool     `yaml:"require_confirmation"`
}

// DefaultConfig returns the built-in policy matching the assistant's
// original hardcoded values.
func DefaultConfig() *Config {
	return &Config{
		BlacklistPaths:      []string{"/system", "/root", "C:/Windows", "C:/Program Files"},
		HighRiskActions:     []string{"delete", "remove", "uninstall", "format"},
		RequireConfirmation: true,
	}
}

// DefaultPath returns the default policy config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "jarvis-policy.yaml")
	}
	return filepath.Join(home, ".jarvis", "policy.yaml")
}

// LoadConfig loads policy configuration from a YAML file.
// Empty path falls back to ~/.jarvis/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns its SHA-256 hash.
// The hash is computed over the raw YAML bytes on disk so audit entries can
// pin the exact policy a decision was made under. When no file exists
// (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultConfig(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read policy config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy config: %w", err)
	}

	return cfg, hash, nil
}

// DefaultConfigYAML returns a commented YAML string for init-policy.
func DefaultConfigYAML() string {
	return `# jarvis policy configuration
# Generated by: jarvis init-policy
#
# Evaluation order (cannot be changed):
#   1. Blacklisted path prefix -> deny
#   2. High-risk keyword in action name or params -> require_confirmation
#   3. Otherwise -> allow

# Path prefixes that are unconditionally denied, regardless of confirmation.
# Matching is a literal, case-sensitive string prefix on the "path" parameter.
blacklist_paths:
  - /system
  - /root
  - C:/Windows
  - C:/Program Files

# Keywords that mark an action as high-risk. Matched case-insensitively as a
# substring of the action name and of the serialized parameters.
high_risk_actions:
  - delete
  - remove
  - uninstall
  - format

# When true, high-risk actions require a verified verbal confirmation before
# they run. When false, the confirmation gate is removed and high-risk
# actions are allowed like any other.
require_confirmation: true
`
}
