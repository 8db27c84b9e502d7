package errors

import (
	"fmt"
	"strings"
	"time"
)

// Common error messages for the specify CLI.
// These templates ensure consistent, actionable error messages.

// ProjectNameRequired creates an error when neither a project name nor --here was given.
func ProjectNameRequired() *CLIError {
	return NewArgumentErrorWithUsage(
		"project name is required",
		"specify init <project-name> | specify init --here",
		"Provide a directory name to create a new project",
		"Or pass --here (or '.' as the name) to provision the current directory",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'specify <command> --help' to see valid options",
	)
}

// UnknownAgent creates an error for an agent key that is not registered.
func UnknownAgent(key string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown agent: %s", key),
		"specify init <project-name> --ai <agent>",
		"Valid agents: "+strings.Join(valid, ", "),
	)
}

// AgentRequired creates an error when no agent was selected on the command line or in config.
func AgentRequired(valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		"no agent selected",
		"specify init <project-name> --ai <agent>",
		"Pass --ai with one of: "+strings.Join(valid, ", "),
		"Or set default_agent in your config file",
	)
}

// InvalidScriptType creates an error for an unsupported script type.
func InvalidScriptType(scriptType string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid script type: %s", scriptType),
		"specify init <project-name> --script sh|ps",
		"Valid script types: "+strings.Join(valid, ", "),
	)
}

// DirectoryExists creates an error when the project directory already exists.
func DirectoryExists(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("directory already exists: %s", path),
		"Choose a different project name",
		"Or run 'specify init --here --force' inside that directory to merge into it",
	)
}

// DirectoryNotEmpty creates an error when provisioning into a non-empty directory without --force.
func DirectoryNotEmpty(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("directory is not empty: %s", path),
		"Template files will be merged with existing content and may overwrite files",
		"Re-run with --force to proceed",
	)
}

// AgentToolMissing creates an error when an agent's CLI is not installed.
func AgentToolMissing(name, tool, installURL string) *CLIError {
	remediation := []string{
		fmt.Sprintf("Install %s so that '%s' is on your PATH", name, tool),
	}
	if installURL != "" {
		remediation = append(remediation, "Installation guide: "+installURL)
	}
	remediation = append(remediation, "Or skip this check with --ignore-agent-tools")
	return NewPrerequisiteError(fmt.Sprintf("%s not found", tool), remediation...)
}

// RateLimitExceeded creates an error when the release API refuses requests for quota reasons.
func RateLimitExceeded(err error) *CLIError {
	return WrapWithMessage(err, Network,
		"GitHub API rate limit exceeded",
		"Authenticate to raise the limit: set GH_TOKEN or GITHUB_TOKEN, or pass --github-token",
		"Or wait until the limit resets and try again",
	)
}

// NoMatchingAsset creates an error when a release carries no template for the agent and script type.
func NoMatchingAsset(pattern, tag string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("no template matching %s found in release %s", pattern, tag),
		"Check that the agent and script type are supported by this release",
		"Or pin a different release with --release <tag>",
	)
}

// ReleaseUnavailable creates an error when release metadata or the archive cannot be fetched.
func ReleaseUnavailable(err error) *CLIError {
	return WrapWithMessage(err, Network,
		"fetching template release failed",
		"Check your network connection",
		"Verify the release exists and the repository is reachable",
		"Increase the timeout with SPECIFY_TIMEOUT=5m if downloads are slow",
	)
}

// ReleaseTimedOut creates an error when the network stages outlast the configured timeout.
func ReleaseTimedOut(timeout time.Duration, err error) *CLIError {
	cliErr := NewNetworkError(
		fmt.Sprintf("template download timed out after %s", timeout),
		"Check your network connection",
		"Increase the timeout with SPECIFY_TIMEOUT=5m or the timeout key in config.yml",
	)
	cliErr.Cause = err
	return cliErr
}

// ConfigWriteFailed creates an error when a config template cannot be written.
func ConfigWriteFailed(path string, err error) *CLIError {
	cliErr := NewConfigError(
		fmt.Sprintf("writing config file %s: %v", path, err),
		"Check that the directory is writable",
		"Run 'specify config path' to see where config files live",
	)
	cliErr.Cause = err
	return cliErr
}

// ProvisioningFailed creates an error when the pipeline aborted.
func ProvisioningFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"project provisioning failed",
		"Review the step tree above for the failing step",
		"Re-run with --debug for details",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Remove the file to fall back to defaults",
	)
}

// InvalidConfigValue creates an error for a configuration value that fails validation.
func InvalidConfigValue(key string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("invalid configuration value for %s", key),
		fmt.Sprintf("Fix %s in your config file or unset SPECIFY_%s", key, strings.ToUpper(key)),
	)
}
