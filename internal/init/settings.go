package init

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the current version of the init.yml schema.
// Increment this when making breaking changes to the schema.
const SchemaVersion = "1.0.0"

// DefaultFileName is the name of the init settings file.
const DefaultFileName = "init.yml"

// DirName is the workspace directory holding specify's own files.
const DirName = ".specify"

// Settings represents the contents of .specify/init.yml.
type Settings struct {
	// Version is the schema version for future compatibility.
	Version string `yaml:"version"`

	// SpecifyVersion is the version of specify that provisioned the workspace.
	SpecifyVersion string `yaml:"specify_version"`

	// Agent is the agent key the template was selected for (e.g., "claude").
	Agent string `yaml:"agent"`

	// ScriptType is "sh" or "ps".
	ScriptType string `yaml:"script_type"`

	// ReleaseTag is the tag of the release the template came from.
	ReleaseTag string `yaml:"release_tag"`

	// Asset is the archive name that was extracted.
	Asset string `yaml:"asset"`

	// GitInitialized is true when specify created the repository.
	GitInitialized bool `yaml:"git_initialized"`

	// CreatedAt is when init.yml was first created.
	CreatedAt time.Time `yaml:"created_at"`

	// UpdatedAt is when init.yml was last modified.
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DefaultPath returns the default path for init.yml relative to project root.
// The path is .specify/init.yml.
func DefaultPath() string {
	return filepath.Join(DirName, DefaultFileName)
}

// PathIn returns the init.yml path inside the workspace at root.
func PathIn(root string) string {
	return filepath.Join(root, DefaultPath())
}

// ExistsAt checks if init.yml exists at the given path.
func ExistsAt(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// LoadFrom reads and parses init.yml from the given path.
// Returns an error if the file doesn't exist or is invalid YAML.
func LoadFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading init settings file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing init settings YAML: %w", err)
	}

	return &settings, nil
}

// SaveTo writes the Settings to the given path.
// Creates the parent directory if it doesn't exist.
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating init settings directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling init settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing init settings file: %w", err)
	}

	return nil
}

// Record writes s to path. When a readable record already exists its
// CreatedAt is kept, so re-provisioning a workspace only bumps UpdatedAt.
func Record(path string, s *Settings) error {
	now := time.Now().UTC()
	s.UpdatedAt = now
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if prev, err := LoadFrom(path); err == nil && !prev.CreatedAt.IsZero() {
		s.CreatedAt = prev.CreatedAt
	}
	return s.SaveTo(path)
}

// NewSettings creates a new Settings with default values.
// The caller fills in the provisioning details.
func NewSettings(specifyVersion string) *Settings {
	now := time.Now().UTC()
	return &Settings{
		Version:        SchemaVersion,
		SpecifyVersion: specifyVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
