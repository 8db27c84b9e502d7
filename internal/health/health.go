// Package health checks whether the external tools specify relies on are
// installed. The provisioning pipeline uses it for the advisory agent-tool
// step and the 'specify check' command prints the full report.
package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/specify/internal/agent"
)

// DefaultTimeout bounds a single tool probe.
const DefaultTimeout = 5 * time.Second

// Checker probes executables by locating them and running them once.
type Checker struct {
	// Timeout bounds each probe run. Zero means DefaultTimeout.
	Timeout time.Duration
	// ProbeArgs are passed to the tool when probing. Nil means --version.
	ProbeArgs []string
	// LookPath resolves a tool name to a path. Nil means exec.LookPath.
	LookPath func(file string) (string, error)
	// HomeDir returns the user's home directory. Nil means os.UserHomeDir.
	HomeDir func() (string, error)
}

// DefaultChecker returns a checker with default settings.
func DefaultChecker() *Checker {
	return &Checker{}
}

// Available reports whether tool can be found and run. Any failure yields false.
func (c *Checker) Available(tool string) bool {
	_, ok := c.Locate(tool)
	return ok
}

// Locate returns the resolved path of tool when it is available.
//
// Claude installs migrated with `claude migrate-installer` live at
// ~/.claude/local/claude and are usually not on PATH, so that file is
// accepted as-is without probing.
func (c *Checker) Locate(tool string) (string, bool) {
	if tool == "" {
		return "", false
	}

	if tool == "claude" {
		if path, ok := c.localClaude(); ok {
			return path, true
		}
	}

	path, err := c.lookPath(tool)
	if err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, path, c.probeArgs()...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return "", false
	}
	return path, true
}

func (c *Checker) localClaude() (string, bool) {
	home := os.UserHomeDir
	if c.HomeDir != nil {
		home = c.HomeDir
	}
	dir, err := home()
	if err != nil {
		return "", false
	}

	path := filepath.Join(dir, ".claude", "local", "claude")
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (c *Checker) lookPath(tool string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(tool)
	}
	return exec.LookPath(tool)
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Checker) probeArgs() []string {
	if c.ProbeArgs != nil {
		return c.ProbeArgs
	}
	return []string{"--version"}
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks never fail the report.
	Optional bool
}

// AgentStatus is the availability of one agent's CLI.
type AgentStatus struct {
	Key        string
	Name       string
	Tool       string
	Installed  bool
	Path       string
	InstallURL string
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks       []CheckResult
	AgentChecks  []AgentStatus
	Passed       bool
	AgentsPassed bool
}

// RunChecks probes git and the CLI of every agent in agents that requires one.
func (c *Checker) RunChecks(agents []agent.Agent) *HealthReport {
	report := &HealthReport{
		Checks:       make([]CheckResult, 0, 1),
		AgentChecks:  make([]AgentStatus, 0, len(agents)),
		Passed:       true,
		AgentsPassed: true,
	}

	report.Checks = append(report.Checks, c.CheckGit())

	for _, a := range agents {
		if !a.RequiresCLI {
			continue
		}
		status := c.CheckAgent(a)
		report.AgentChecks = append(report.AgentChecks, status)
		if !status.Installed {
			report.AgentsPassed = false
		}
	}

	for _, check := range report.Checks {
		if !check.Passed && !check.Optional {
			report.Passed = false
		}
	}
	return report
}

// CheckGit checks for the git CLI. Repositories are initialized without it,
// so a missing git is only reported.
func (c *Checker) CheckGit() CheckResult {
	if path, ok := c.Locate("git"); ok {
		return CheckResult{Name: "Git", Passed: true, Message: fmt.Sprintf("found at %s", path), Optional: true}
	}
	return CheckResult{Name: "Git", Passed: false, Message: "git CLI not found in PATH", Optional: true}
}

// CheckAgent reports whether the CLI for a is installed.
func (c *Checker) CheckAgent(a agent.Agent) AgentStatus {
	path, ok := c.Locate(a.Tool())
	return AgentStatus{
		Key:        a.Key,
		Name:       a.Name,
		Tool:       a.Tool(),
		Installed:  ok,
		Path:       path,
		InstallURL: a.InstallURL,
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output string

	for _, check := range report.Checks {
		switch {
		case check.Passed:
			output += fmt.Sprintf("✓ %s: %s\n", check.Name, check.Message)
		case check.Optional:
			output += fmt.Sprintf("○ %s: %s\n", check.Name, check.Message)
		default:
			output += fmt.Sprintf("✗ %s: %s\n", check.Name, check.Message)
		}
	}

	if len(report.AgentChecks) > 0 {
		output += "\nCLI Agents:\n"
		for _, status := range report.AgentChecks {
			output += FormatAgentStatus(status)
		}
	}

	return output
}

// FormatAgentStatus formats a single agent status for console output
func FormatAgentStatus(status AgentStatus) string {
	if status.Installed {
		return fmt.Sprintf("  ✓ %s (%s): installed\n", status.Name, status.Tool)
	}
	if status.InstallURL != "" {
		return fmt.Sprintf("  ○ %s (%s): not found, install from %s\n", status.Name, status.Tool, status.InstallURL)
	}
	return fmt.Sprintf("  ○ %s (%s): not found\n", status.Name, status.Tool)
}
