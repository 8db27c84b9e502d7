package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategory_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		category ErrorCategory
		want     string
	}{
		"argument":      {category: Argument, want: "Argument Error"},
		"configuration": {category: Configuration, want: "Configuration Error"},
		"prerequisite":  {category: Prerequisite, want: "Prerequisite Error"},
		"runtime":       {category: Runtime, want: "Runtime Error"},
		"network":       {category: Network, want: "Network Error"},
		"unknown":       {category: ErrorCategory(99), want: "Error"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.category.String())
		})
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("boom")
	wrapped := fmt.Errorf("fetching: %w", sentinel)

	cliErr := WrapWithMessage(wrapped, Network, "request failed", "retry")
	require.NotNil(t, cliErr)
	assert.Equal(t, "request failed: fetching: boom", cliErr.Error())
	assert.ErrorIs(t, cliErr, sentinel)

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, WrapWithMessage(nil, Runtime, "x"))
}

func TestAsCLIError(t *testing.T) {
	t.Parallel()

	base := NewArgumentError("bad flag")
	chained := fmt.Errorf("running init: %w", base)

	assert.Same(t, base, AsCLIError(chained))
	assert.Nil(t, AsCLIError(stderrors.New("plain")))
	assert.Nil(t, AsCLIError(nil))
}

func TestMessages(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("underlying")

	tests := map[string]struct {
		err          *CLIError
		wantCategory ErrorCategory
		wantMessage  string
		wantFix      string
	}{
		"project name required": {
			err:          ProjectNameRequired(),
			wantCategory: Argument,
			wantMessage:  "project name is required",
			wantFix:      "--here",
		},
		"unknown agent": {
			err:          UnknownAgent("nope", []string{"claude", "gemini"}),
			wantCategory: Argument,
			wantMessage:  "unknown agent: nope",
			wantFix:      "Valid agents: claude, gemini",
		},
		"agent required": {
			err:          AgentRequired([]string{"claude", "gemini"}),
			wantCategory: Argument,
			wantMessage:  "no agent selected",
			wantFix:      "default_agent",
		},
		"invalid script type": {
			err:          InvalidScriptType("bat", []string{"ps", "sh"}),
			wantCategory: Argument,
			wantMessage:  "invalid script type: bat",
			wantFix:      "Valid script types: ps, sh",
		},
		"directory not empty": {
			err:          DirectoryNotEmpty("/tmp/x"),
			wantCategory: Argument,
			wantMessage:  "directory is not empty: /tmp/x",
			wantFix:      "--force",
		},
		"directory exists": {
			err:          DirectoryExists("proj"),
			wantCategory: Argument,
			wantMessage:  "directory already exists: proj",
			wantFix:      "different project name",
		},
		"agent tool missing": {
			err:          AgentToolMissing("Gemini CLI", "gemini", "https://example.com"),
			wantCategory: Prerequisite,
			wantMessage:  "gemini not found",
			wantFix:      "--ignore-agent-tools",
		},
		"rate limit exceeded": {
			err:          RateLimitExceeded(cause),
			wantCategory: Network,
			wantMessage:  "GitHub API rate limit exceeded: underlying",
			wantFix:      "GH_TOKEN",
		},
		"no matching asset": {
			err:          NoMatchingAsset("spec-kit-template-claude-sh", "v1.0.0"),
			wantCategory: Runtime,
			wantMessage:  "no template matching spec-kit-template-claude-sh found in release v1.0.0",
			wantFix:      "--release",
		},
		"release unavailable": {
			err:          ReleaseUnavailable(cause),
			wantCategory: Network,
			wantMessage:  "fetching template release failed: underlying",
			wantFix:      "SPECIFY_TIMEOUT",
		},
		"release timed out": {
			err:          ReleaseTimedOut(90*time.Second, cause),
			wantCategory: Network,
			wantMessage:  "template download timed out after 1m30s",
			wantFix:      "SPECIFY_TIMEOUT",
		},
		"config write failed": {
			err:          ConfigWriteFailed("/x/config.yml", cause),
			wantCategory: Configuration,
			wantMessage:  "writing config file /x/config.yml: underlying",
			wantFix:      "specify config path",
		},
		"provisioning failed": {
			err:          ProvisioningFailed(cause),
			wantCategory: Runtime,
			wantMessage:  "project provisioning failed: underlying",
			wantFix:      "--debug",
		},
		"config parse error": {
			err:          ConfigParseError("/x/config.yml", cause),
			wantCategory: Configuration,
			wantMessage:  "failed to parse config file: /x/config.yml: underlying",
			wantFix:      "YAML",
		},
		"invalid config value": {
			err:          InvalidConfigValue("timeout", cause),
			wantCategory: Configuration,
			wantMessage:  "invalid configuration value for timeout: underlying",
			wantFix:      "SPECIFY_TIMEOUT",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCategory, tt.err.Category)
			assert.Equal(t, tt.wantMessage, tt.err.Message)
			assert.Contains(t, formatError(tt.err, false), tt.wantFix)
		})
	}
}

func TestFormatError_Plain(t *testing.T) {
	t.Parallel()

	out := formatError(UnknownAgent("nope", []string{"claude"}), false)

	assert.Contains(t, out, "Error [Argument Error]: unknown agent: nope\n")
	assert.Contains(t, out, "Usage: specify init <project-name> --ai <agent>\n")
	assert.Contains(t, out, "To fix this:\n  • Valid agents: claude\n")
	assert.NotContains(t, out, "\x1b[")

	assert.Empty(t, FormatError(nil))
}
