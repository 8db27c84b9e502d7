package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ariel-frischer/specify/internal/config"
	clierrors "github.com/ariel-frischer/specify/internal/errors"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create specify configuration files",
		Long: `Configuration is layered. From lowest to highest priority:
  1. Built-in defaults
  2. User config:    ` + config.UserConfigPath() + `
  3. Project config: .specify/config.yml (or --config)
  4. Environment:    SPECIFY_<KEY>, e.g. SPECIFY_TIMEOUT=5m`,
		GroupID: GroupConfiguration,
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigInitCmd(), newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range cfg.Entries() {
				fmt.Fprintf(tw, "%s:\t%v\t%s\n", e.Key, e.Value, cDim("("+string(e.Source)+")"))
			}
			return tw.Flush()
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config file with the default values",
		Example: `  # User config
  specify config init

  # Project config in .specify/config.yml
  specify config init --project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetBool("project")
			force, _ := cmd.Flags().GetBool("force")

			path := config.UserConfigPath()
			if project {
				path = config.ProjectConfigPath()
			}

			written, err := config.WriteTemplate(path, force)
			if err != nil {
				return clierrors.ConfigWriteFailed(path, err)
			}
			out := cmd.OutOrStdout()
			if !written {
				fmt.Fprintf(out, "%s Config exists: %s %s\n", cYellow("○"), path, cDim("(use --force to overwrite)"))
				return nil
			}
			fmt.Fprintf(out, "%s Config written: %s\n", cGreen("✓"), path)
			return nil
		},
	}
	cmd.Flags().Bool("project", false, "Write the project config instead of the user config")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file locations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", config.UserConfigPath())
			fmt.Fprintf(out, "project: %s\n", config.ProjectConfigPath())
			fmt.Fprintf(out, "cache:   %s\n", config.CacheDir())
		},
	}
}
