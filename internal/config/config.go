// specify - Bootstrap spec-driven projects from released templates
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/specify

// Package config provides hierarchical configuration management for specify using koanf.
// Configuration is loaded with priority: environment variables (SPECIFY_*) > project config
// (.specify/config.yml) > user config (~/.config/specify/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "SPECIFY_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the specify CLI tool configuration
type Configuration struct {
	// RepoOwner and RepoName identify the repository whose releases carry the templates.
	RepoOwner string `koanf:"repo_owner" validate:"required"`
	RepoName  string `koanf:"repo_name" validate:"required"`
	// APIBaseURL is the GitHub REST API root. Override for GitHub Enterprise.
	APIBaseURL string `koanf:"api_base_url" validate:"required,url"`
	// Timeout bounds all network stages of one provisioning run.
	// Can be set via SPECIFY_TIMEOUT (e.g., "5m").
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// DefaultAgent is used when --ai is not given.
	DefaultAgent string `koanf:"default_agent"`
	// ScriptType is used when --script is not given. Empty picks by OS.
	ScriptType string `koanf:"script_type" validate:"omitempty,oneof=sh ps"`

	NoGit            bool `koanf:"no_git"`
	IgnoreAgentTools bool `koanf:"ignore_agent_tools"`
	// GitHubKeyring enables reading the token from the OS keyring after GH_TOKEN/GITHUB_TOKEN.
	GitHubKeyring bool `koanf:"github_keyring"`

	// Sources records which layer last set each key.
	Sources map[string]ConfigSource `koanf:"-"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// UserConfigPath overrides the user config path (default: $XDG_CONFIG_HOME/specify/config.yml)
	UserConfigPath string
	// ProjectConfigPath overrides the project config path (default: .specify/config.yml)
	ProjectConfigPath string
	// SkipUser skips the user config layer.
	SkipUser bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	sources := make(map[string]ConfigSource)

	loadDefaults(k, sources)

	if !opts.SkipUser {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath = UserConfigPath()
		}
		if err := loadFileLayer(k, userPath, SourceUser, sources); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	if err := loadFileLayer(k, projectPath, SourceProject, sources); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := loadEnvironmentConfig(k, sources); err != nil {
		return nil, err
	}

	return finalizeConfig(k, sources)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf, sources map[string]ConfigSource) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
		sources[key] = SourceDefault
	}
}

// loadFileLayer validates and loads a config file. A missing file is skipped.
// Files ending in .json are parsed as JSON, everything else as YAML.
func loadFileLayer(k *koanf.Koanf, path string, source ConfigSource, sources map[string]ConfigSource) error {
	if !fileExists(path) {
		return nil
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	} else if err := ValidateYAMLSyntax(path); err != nil {
		return err
	}

	layer := koanf.New(".")
	if err := layer.Load(file.Provider(path), parser); err != nil {
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	return mergeLayer(k, layer, source, sources)
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf, sources map[string]ConfigSource) error {
	layer := koanf.New(".")
	if err := layer.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return mergeLayer(k, layer, SourceEnv, sources)
}

func mergeLayer(k, layer *koanf.Koanf, source ConfigSource, sources map[string]ConfigSource) error {
	for _, key := range layer.Keys() {
		sources[key] = source
	}
	if err := k.Merge(layer); err != nil {
		return fmt.Errorf("merging %s config: %w", source, err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration
func finalizeConfig(k *koanf.Koanf, sources map[string]ConfigSource) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Sources = sources
	return &cfg, nil
}

// Source reports which layer set key.
func (c *Configuration) Source(key string) ConfigSource {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: SPECIFY_REPO_OWNER -> repo_owner
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Entry is one effective configuration value and the layer that set it.
type Entry struct {
	Key    string
	Value  any
	Source ConfigSource
}

// Entries returns the effective configuration in a stable order.
func (c *Configuration) Entries() []Entry {
	values := []struct {
		key   string
		value any
	}{
		{"repo_owner", c.RepoOwner},
		{"repo_name", c.RepoName},
		{"api_base_url", c.APIBaseURL},
		{"timeout", c.Timeout.String()},
		{"default_agent", c.DefaultAgent},
		{"script_type", c.ScriptType},
		{"no_git", c.NoGit},
		{"ignore_agent_tools", c.IgnoreAgentTools},
		{"github_keyring", c.GitHubKeyring},
	}

	entries := make([]Entry, len(values))
	for i, v := range values {
		entries[i] = Entry{Key: v.key, Value: v.value, Source: c.Source(v.key)}
	}
	return entries
}
