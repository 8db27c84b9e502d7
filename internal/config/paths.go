package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user config and cache directories.
const AppName = "specify"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/specify/config.yml
// - macOS: ~/Library/Application Support/specify/config.yml
// - Windows: %LOCALAPPDATA%\specify\config.yml
func UserConfigPath() string {
	return filepath.Join(UserConfigDir(), "config.yml")
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// CacheDir returns the directory for downloaded template archives.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .specify/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".specify"
}
