package cli

import (
	"fmt"

	"github.com/ariel-frischer/specify/internal/agent"
	clierrors "github.com/ariel-frischer/specify/internal/errors"
	"github.com/ariel-frischer/specify/internal/health"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the tools specify works with are installed",
		Long: `Check for git and for the command-line tool of every agent that ships one.

IDE-based agents (Copilot, Cursor, Windsurf, ...) have nothing to check.
A missing git is reported but not fatal: repositories are initialized without it.`,
		Example: `  specify check`,
		GroupID: GroupGettingStarted,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cBold("Checking for installed tools..."))
	fmt.Fprintln(out)

	report := newChecker().RunChecks(agent.WithCLI())
	fmt.Fprint(out, health.FormatReport(report))
	fmt.Fprintln(out)

	if !report.Passed {
		return clierrors.NewPrerequisiteError("required tools are missing",
			"Install the tools marked with ✗ above")
	}

	fmt.Fprintf(out, "%s Specify CLI is ready to use!\n", cGreen("✓"))
	if !report.AgentsPassed {
		fmt.Fprintln(out, cDim("Agents marked ○ need their CLI installed, or pass --ignore-agent-tools to init."))
	}
	return nil
}
