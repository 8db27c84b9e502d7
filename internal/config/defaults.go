package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default values for the template release source.
const (
	DefaultRepoOwner  = "github"
	DefaultRepoName   = "spec-kit"
	DefaultAPIBaseURL = "https://api.github.com"
	DefaultTimeout    = 2 * time.Minute
)

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# Specify Configuration
# Environment variables override every key: SPECIFY_<KEY> (e.g., SPECIFY_TIMEOUT=5m)

# Template source
repo_owner: github                    # Owner of the repository publishing template releases
repo_name: spec-kit                   # Repository publishing template releases
api_base_url: https://api.github.com  # GitHub API root (change for GitHub Enterprise)
timeout: 2m                           # Bound on release lookup and download

# Provisioning defaults
default_agent: ""                     # Agent used when --ai is omitted
script_type: ""                       # sh | ps (empty = ps on Windows, sh elsewhere)
no_git: false                         # Skip git repository initialization
ignore_agent_tools: false             # Skip the agent CLI availability check

# Credentials
github_keyring: false                 # Read the GitHub token from the OS keyring (service "specify", user "github")
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"repo_owner":   DefaultRepoOwner,
		"repo_name":    DefaultRepoName,
		"api_base_url": DefaultAPIBaseURL,
		// timeout: stored as a string so koanf decodes it the same way as file and env values.
		"timeout":            DefaultTimeout.String(),
		"default_agent":      "",
		"script_type":        "",
		"no_git":             false,
		"ignore_agent_tools": false,
		"github_keyring":     false,
	}
}

// WriteTemplate writes the commented default config to path.
// An existing file is left alone unless force is set; the boolean reports
// whether the file was written.
func WriteTemplate(path string, force bool) (bool, error) {
	if fileExists(path) && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GetDefaultConfigTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("writing config template: %w", err)
	}
	return true, nil
}
