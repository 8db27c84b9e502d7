package cli

import (
	clierrors "github.com/ariel-frischer/specify/internal/errors"
)

// Exit codes for the specify CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailed indicates provisioning or another runtime step failed
	ExitFailed = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates required dependencies are missing
	ExitMissingDependencies = 4
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailed
	}
	switch cliErr.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Prerequisite:
		return ExitMissingDependencies
	default:
		return ExitFailed
	}
}
