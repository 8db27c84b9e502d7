// Package agent describes the downstream tool integrations specify can provision
// templates for. Each agent owns a hidden folder in the workspace where its
// commands and settings live; agents with a CLI are probed before provisioning.
package agent

import (
	"runtime"
	"sort"

	"github.com/samber/lo"
)

// Agent is a single tool integration with its own template variant.
type Agent struct {
	// Key is the identifier used on the command line and in asset names (e.g., "claude").
	Key string
	// Name is the human-readable product name.
	Name string
	// Folder is the hidden directory the template places agent files in (e.g., ".claude/").
	Folder string
	// InstallURL points at installation docs. Empty for IDE-based agents.
	InstallURL string
	// RequiresCLI is true when the agent ships a command-line tool that must be on PATH.
	RequiresCLI bool
}

// Tool returns the executable probed for CLI-based agents.
func (a Agent) Tool() string {
	return a.Key
}

var registry = map[string]Agent{
	"claude": {
		Key: "claude", Name: "Claude Code", Folder: ".claude/",
		InstallURL: "https://docs.anthropic.com/en/docs/claude-code/setup", RequiresCLI: true,
	},
	"gemini": {
		Key: "gemini", Name: "Gemini CLI", Folder: ".gemini/",
		InstallURL: "https://github.com/google-gemini/gemini-cli", RequiresCLI: true,
	},
	"copilot": {
		Key: "copilot", Name: "GitHub Copilot", Folder: ".github/",
	},
	"cursor-agent": {
		Key: "cursor-agent", Name: "Cursor", Folder: ".cursor/",
	},
	"qwen": {
		Key: "qwen", Name: "Qwen Code", Folder: ".qwen/",
		InstallURL: "https://github.com/QwenLM/qwen-code", RequiresCLI: true,
	},
	"opencode": {
		Key: "opencode", Name: "opencode", Folder: ".opencode/",
		InstallURL: "https://opencode.ai", RequiresCLI: true,
	},
	"codex": {
		Key: "codex", Name: "Codex CLI", Folder: ".codex/",
		InstallURL: "https://github.com/openai/codex", RequiresCLI: true,
	},
	"windsurf": {
		Key: "windsurf", Name: "Windsurf", Folder: ".windsurf/",
	},
	"kilocode": {
		Key: "kilocode", Name: "Kilo Code", Folder: ".kilocode/",
	},
	"auggie": {
		Key: "auggie", Name: "Auggie CLI", Folder: ".augment/",
		InstallURL: "https://docs.augmentcode.com/cli/setup-auggie/install-auggie-cli", RequiresCLI: true,
	},
	"codebuddy": {
		Key: "codebuddy", Name: "CodeBuddy", Folder: ".codebuddy/",
		InstallURL: "https://www.codebuddy.ai/cli", RequiresCLI: true,
	},
	"roo": {
		Key: "roo", Name: "Roo Code", Folder: ".roo/",
	},
	"q": {
		Key: "q", Name: "Amazon Q Developer CLI", Folder: ".amazonq/",
		InstallURL: "https://aws.amazon.com/developer/learning/q-developer-cli/", RequiresCLI: true,
	},
	"amp": {
		Key: "amp", Name: "Amp", Folder: ".agents/",
		InstallURL: "https://ampcode.com/manual#install", RequiresCLI: true,
	},
	"shai": {
		Key: "shai", Name: "SHAI", Folder: ".shai/",
		InstallURL: "https://github.com/ovh/shai", RequiresCLI: true,
	},
}

// Get returns the agent registered under key.
func Get(key string) (Agent, bool) {
	a, ok := registry[key]
	return a, ok
}

// List returns all agent keys in sorted order.
func List() []string {
	keys := lo.Keys(registry)
	sort.Strings(keys)
	return keys
}

// All returns every registered agent sorted by key.
func All() []Agent {
	return lo.Map(List(), func(key string, _ int) Agent {
		return registry[key]
	})
}

// WithCLI returns the agents that require a command-line tool.
func WithCLI() []Agent {
	return lo.Filter(All(), func(a Agent, _ int) bool {
		return a.RequiresCLI
	})
}

// Script types select the automation scripts shipped with a template.
const (
	ScriptShell      = "sh"
	ScriptPowerShell = "ps"
)

// ScriptTypes maps each supported script type to its description.
var ScriptTypes = map[string]string{
	ScriptShell:      "POSIX Shell (bash/zsh)",
	ScriptPowerShell: "PowerShell",
}

// IsValidScriptType reports whether s is a supported script type.
func IsValidScriptType(s string) bool {
	_, ok := ScriptTypes[s]
	return ok
}

// DefaultScriptType returns "ps" on Windows and "sh" everywhere else.
func DefaultScriptType() string {
	if runtime.GOOS == "windows" {
		return ScriptPowerShell
	}
	return ScriptShell
}
