// Package cli wires the specify commands: init provisions a workspace from a
// template release, check reports tool availability, config manages the
// config files and version prints build information.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	clierrors "github.com/ariel-frischer/specify/internal/errors"
	"github.com/ariel-frischer/specify/internal/git"
	"github.com/ariel-frischer/specify/internal/github"
	"github.com/ariel-frischer/specify/internal/provision"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command group IDs for help output organization.
const (
	GroupGettingStarted = "getting-started"
	GroupConfiguration  = "configuration"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "specify",
		Short: "Bootstrap spec-driven projects from released templates",
		Long: `specify provisions a project workspace from the template archives attached to
GitHub releases of github/spec-kit.

It picks the template for your agent and script type, downloads it, merges
JSON settings with what is already on disk and initializes a git repository.

Project: https://github.com/ariel-frischer/specify`,
		Example: `  # Create a new project for Claude Code
  specify init my-project --ai claude

  # Provision the current directory with PowerShell scripts
  specify init --here --ai copilot --script ps

  # Check which agent tools are installed
  specify check`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			configureDebugLogging(cmd.ErrOrStderr(), debug)
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})

	root.PersistentFlags().String("config", "", "Path to the project config file (default: .specify/config.yml)")
	root.PersistentFlags().Bool("debug", false, "Print debug logging to stderr")

	root.AddCommand(newInitCmd(), newCheckCmd(), newConfigCmd(), newVersionCmd())
	return root
}

// configureDebugLogging points every package debug logger at w, or silences them.
func configureDebugLogging(w io.Writer, enabled bool) {
	if !enabled {
		git.SetDebugLogger(nil)
		github.SetDebugLogger(nil)
		provision.SetDebugLogger(nil)
		return
	}

	logger := log.New(w, "[debug] ", log.Ltime)
	logf := func(format string, args ...any) {
		logger.Printf(format, args...)
	}
	git.SetDebugLogger(logf)
	github.SetDebugLogger(logf)
	provision.SetDebugLogger(logf)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	printError(stderr, err)
	return ExitCode(err)
}

// printError renders err with remediation when it carries any.
func printError(w io.Writer, err error) {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
}
