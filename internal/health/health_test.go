package health

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/specify/internal/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The test binary doubles as the probed tool: invoked with -test.run=^$ it
// runs nothing and exits 0, and HEALTH_HELPER_SLEEP makes it hang.
func TestMain(m *testing.M) {
	if os.Getenv("HEALTH_HELPER_SLEEP") == "1" {
		time.Sleep(10 * time.Second)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

var noTestsArgs = []string{"-test.run=^$"}

func selfPath(t *testing.T) string {
	t.Helper()
	path, err := os.Executable()
	require.NoError(t, err)
	return path
}

func notFound(string) (string, error) { return "", errors.New("not found") }

func TestChecker_Available(t *testing.T) {
	t.Parallel()

	self := selfPath(t)

	tests := map[string]struct {
		tool    string
		checker *Checker
		want    bool
	}{
		"runnable tool": {
			tool:    self,
			checker: &Checker{ProbeArgs: noTestsArgs},
			want:    true,
		},
		"probe exits non-zero": {
			tool:    self,
			checker: &Checker{ProbeArgs: []string{"-test.no-such-flag"}},
			want:    false,
		},
		"not on PATH": {
			tool:    "specify-definitely-missing-tool",
			checker: &Checker{},
			want:    false,
		},
		"lookup fails": {
			tool:    self,
			checker: &Checker{LookPath: notFound},
			want:    false,
		},
		"empty name": {
			tool:    "",
			checker: &Checker{},
			want:    false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.checker.Available(tt.tool))
		})
	}
}

func TestChecker_AvailableTimesOut(t *testing.T) {
	t.Setenv("HEALTH_HELPER_SLEEP", "1")

	c := &Checker{Timeout: 100 * time.Millisecond, ProbeArgs: noTestsArgs}
	start := time.Now()
	assert.False(t, c.Available(selfPath(t)))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestChecker_LocalClaudeInstall(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup func(t *testing.T, home string)
		want  bool
	}{
		"migrated install present": {
			setup: func(t *testing.T, home string) {
				dir := filepath.Join(home, ".claude", "local")
				require.NoError(t, os.MkdirAll(dir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "claude"), []byte("#!/bin/sh\n"), 0o755))
			},
			want: true,
		},
		"directory instead of file": {
			setup: func(t *testing.T, home string) {
				require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude", "local", "claude"), 0o755))
			},
			want: false,
		},
		"nothing installed": {
			setup: func(t *testing.T, home string) {},
			want:  false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			home := t.TempDir()
			tt.setup(t, home)

			c := &Checker{
				LookPath: notFound,
				HomeDir:  func() (string, error) { return home, nil },
			}
			assert.Equal(t, tt.want, c.Available("claude"))
		})
	}
}

func TestChecker_LocalClaudeOnlyForClaude(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	dir := filepath.Join(home, ".claude", "local")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini"), []byte(""), 0o755))

	c := &Checker{
		LookPath: notFound,
		HomeDir:  func() (string, error) { return home, nil },
	}
	assert.False(t, c.Available("gemini"))
}

func TestRunChecks(t *testing.T) {
	t.Parallel()

	self := selfPath(t)
	c := &Checker{
		ProbeArgs: noTestsArgs,
		LookPath: func(file string) (string, error) {
			if file == "installed-cli" || file == "git" {
				return self, nil
			}
			return "", errors.New("not found")
		},
		HomeDir: func() (string, error) { return t.TempDir(), nil },
	}

	agents := []agent.Agent{
		{Key: "installed-cli", Name: "Installed", RequiresCLI: true},
		{Key: "missing-cli", Name: "Missing", RequiresCLI: true, InstallURL: "https://example.com/install"},
		{Key: "ide", Name: "IDE Agent", RequiresCLI: false},
	}

	report := c.RunChecks(agents)

	require.Len(t, report.Checks, 1)
	assert.Equal(t, "Git", report.Checks[0].Name)
	assert.True(t, report.Checks[0].Passed)
	assert.True(t, report.Passed)

	require.Len(t, report.AgentChecks, 2)
	assert.True(t, report.AgentChecks[0].Installed)
	assert.Equal(t, self, report.AgentChecks[0].Path)
	assert.False(t, report.AgentChecks[1].Installed)
	assert.False(t, report.AgentsPassed)
}

func TestRunChecks_MissingGitIsOptional(t *testing.T) {
	t.Parallel()

	c := &Checker{LookPath: notFound, HomeDir: func() (string, error) { return t.TempDir(), nil }}
	report := c.RunChecks(nil)

	assert.False(t, report.Checks[0].Passed)
	assert.True(t, report.Checks[0].Optional)
	assert.True(t, report.Passed)
	assert.True(t, report.AgentsPassed)
	assert.Empty(t, report.AgentChecks)
}

func TestRunChecks_RegistryAgents(t *testing.T) {
	t.Parallel()

	c := &Checker{LookPath: notFound, HomeDir: func() (string, error) { return t.TempDir(), nil }}
	report := c.RunChecks(agent.All())

	assert.Len(t, report.AgentChecks, len(agent.WithCLI()))
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report   *HealthReport
		expected []string
		absent   []string
	}{
		"all checks pass": {
			report: &HealthReport{
				Checks: []CheckResult{{Name: "Git", Passed: true, Message: "found at /usr/bin/git", Optional: true}},
				AgentChecks: []AgentStatus{
					{Name: "Claude Code", Tool: "claude", Installed: true},
				},
				Passed:       true,
				AgentsPassed: true,
			},
			expected: []string{
				"✓ Git: found at /usr/bin/git",
				"CLI Agents:",
				"  ✓ Claude Code (claude): installed",
			},
		},
		"optional check fails": {
			report: &HealthReport{
				Checks: []CheckResult{{Name: "Git", Passed: false, Message: "git CLI not found in PATH", Optional: true}},
				Passed: true,
			},
			expected: []string{"○ Git: git CLI not found in PATH"},
			absent:   []string{"✗", "CLI Agents:"},
		},
		"required check fails": {
			report: &HealthReport{
				Checks: []CheckResult{{Name: "Thing", Passed: false, Message: "broken"}},
			},
			expected: []string{"✗ Thing: broken"},
		},
		"agent missing with install url": {
			report: &HealthReport{
				AgentChecks: []AgentStatus{
					{Name: "Gemini CLI", Tool: "gemini", InstallURL: "https://github.com/google-gemini/gemini-cli"},
					{Name: "Other", Tool: "other"},
				},
			},
			expected: []string{
				"  ○ Gemini CLI (gemini): not found, install from https://github.com/google-gemini/gemini-cli",
				"  ○ Other (other): not found\n",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			output := FormatReport(tt.report)
			for _, expected := range tt.expected {
				assert.Contains(t, output, expected)
			}
			for _, absent := range tt.absent {
				assert.False(t, strings.Contains(output, absent), "output should not contain %q", absent)
			}
		})
	}
}
