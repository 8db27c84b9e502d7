package cli

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/specify/internal/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/specify"

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for specify",
		Example: `  # Show version info
  specify version

  # Plain output (for scripts)
  specify version --plain`,
		GroupID: GroupGettingStarted,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			plain, _ := cmd.Flags().GetBool("plain")
			if plain {
				printPlainVersion(cmd.OutOrStdout(), version.Get())
				return
			}
			printPrettyVersion(cmd.OutOrStdout(), version.Get())
		},
	}
	cmd.Flags().Bool("plain", false, "Plain output without formatting")
	return cmd
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer, info version.Info) {
	fmt.Fprintf(w, "specify %s\n", info.Version)
	fmt.Fprintf(w, "commit: %s\n", info.Commit)
	fmt.Fprintf(w, "built: %s\n", info.BuildDate)
	fmt.Fprintf(w, "go: %s\n", info.GoVersion)
	fmt.Fprintf(w, "platform: %s\n", info.Platform)
}

func printPrettyVersion(w io.Writer, info version.Info) {
	yellow := color.New(color.FgYellow).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n\n", cBold(cCyan("specify")), cDim("bootstrap spec-driven projects"))
	versionValue := info.Version
	if info.Dev {
		versionValue += " (development build)"
	}
	rows := []struct {
		label string
		value string
	}{
		{"Version", versionValue},
		{"Commit", info.ShortCommit()},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s\n", yellow(fmt.Sprintf("%9s", r.label)), white(r.value))
	}
	fmt.Fprintf(w, "\n  %s\n", cDim(SourceURL))
}
