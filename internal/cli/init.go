package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ariel-frischer/specify/internal/agent"
	"github.com/ariel-frischer/specify/internal/config"
	clierrors "github.com/ariel-frischer/specify/internal/errors"
	"github.com/ariel-frischer/specify/internal/github"
	"github.com/ariel-frischer/specify/internal/health"
	"github.com/ariel-frischer/specify/internal/progress"
	"github.com/ariel-frischer/specify/internal/provision"
	"github.com/ariel-frischer/specify/internal/version"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Color helper functions for command output
var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
	cBold   = color.New(color.Bold).SprintFunc()
)

// newChecker builds the tool checker used by init and check.
var newChecker = health.DefaultChecker

// initOptions holds the parsed init flags.
type initOptions struct {
	name             string
	here             bool
	force            bool
	noGit            bool
	ignoreAgentTools bool
	ai               string
	script           string
	token            string
	release          string
}

// initTarget is the resolved workspace directory.
type initTarget struct {
	dir  string
	name string
	here bool
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Create a project from the latest template release",
		Long: `Create a new project, or provision the current directory, from a spec-kit
template release.

This command:
  1. Checks that the selected agent's CLI is installed (skip with --ignore-agent-tools)
  2. Downloads the template for the agent and script type from GitHub releases
  3. Extracts it, merging JSON settings such as .vscode/settings.json with existing files
  4. Makes shell scripts executable and initializes a git repository
  5. Records the provisioning details in .specify/init.yml

A GitHub token from --github-token, GH_TOKEN or GITHUB_TOKEN raises the API rate limit.`,
		Example: `  # New project directory
  specify init my-project --ai claude

  # Current directory (either form)
  specify init --here --ai gemini
  specify init . --ai gemini

  # Pin a release and skip git
  specify init my-project --ai copilot --release v0.0.79 --no-git`,
		GroupID: GroupGettingStarted,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return clierrors.NewArgumentErrorWithUsage(
					fmt.Sprintf("accepts at most one project name, received %d", len(args)),
					cmd.UseLine(),
					"Quote directory names that contain spaces",
				)
			}
			return nil
		},
		RunE: runInit,
	}

	cmd.Flags().Bool("here", false, "Provision the current directory instead of creating a new one")
	cmd.Flags().String("ai", "", fmt.Sprintf("Agent to provision for (%s)", strings.Join(agent.List(), ", ")))
	cmd.Flags().String("script", "", "Script type: sh or ps (default: ps on Windows, sh elsewhere)")
	cmd.Flags().String("github-token", "", "GitHub token for API requests (default: GH_TOKEN or GITHUB_TOKEN)")
	cmd.Flags().String("release", "", "Release tag to use instead of the latest (e.g., v0.0.79)")
	cmd.Flags().Bool("no-git", false, "Skip git repository initialization")
	cmd.Flags().Bool("ignore-agent-tools", false, "Skip the check for the agent's CLI")
	cmd.Flags().BoolP("force", "f", false, "Provision a non-empty directory with --here without complaint")
	return cmd
}

func readInitOptions(cmd *cobra.Command, args []string) initOptions {
	flags := cmd.Flags()
	opts := initOptions{}
	if len(args) > 0 {
		opts.name = args[0]
	}
	opts.here, _ = flags.GetBool("here")
	opts.force, _ = flags.GetBool("force")
	opts.noGit, _ = flags.GetBool("no-git")
	opts.ignoreAgentTools, _ = flags.GetBool("ignore-agent-tools")
	opts.ai, _ = flags.GetString("ai")
	opts.script, _ = flags.GetString("script")
	opts.token, _ = flags.GetString("github-token")
	opts.release, _ = flags.GetString("release")
	return opts
}

func runInit(cmd *cobra.Command, args []string) error {
	opts := readInitOptions(cmd, args)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target, err := resolveTarget(opts)
	if err != nil {
		return err
	}
	a, scriptType, err := selectAgent(opts, cfg)
	if err != nil {
		return err
	}

	checker := newChecker()
	if !opts.ignoreAgentTools && !cfg.IgnoreAgentTools && a.RequiresCLI && !checker.Available(a.Tool()) {
		return clierrors.AgentToolMissing(a.Name, a.Tool(), a.InstallURL)
	}

	req := provision.Request{
		Agent:            a.Key,
		ScriptType:       scriptType,
		TargetDir:        target.dir,
		Token:            opts.token,
		Release:          opts.release,
		NoGit:            opts.noGit || cfg.NoGit,
		IgnoreAgentTools: opts.ignoreAgentTools || cfg.IgnoreAgentTools,
		RemoveOnFailure:  !target.here,
	}
	p := provision.New(githubOptions(cfg), checker, provision.Options{
		Timeout:  cfg.Timeout,
		CacheDir: config.CacheDir(),
		Version:  version.Version,
	})

	out := cmd.OutOrStdout()
	printInitHeader(out, target, a, scriptType)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tracker := progress.NewTracker("Initialize Specify Project")
	if err := provision.AddSteps(tracker); err != nil {
		return fmt.Errorf("preparing progress tracker: %w", err)
	}
	display := progress.NewDisplay(tracker, out, progress.DetectTerminalCapabilities())
	display.Start()
	outcome, provErr := p.Provision(ctx, req, tracker)
	if err := display.Stop(); err != nil {
		return fmt.Errorf("rendering progress: %w", err)
	}

	if provErr != nil {
		return mapProvisionError(provErr, req, outcome, cfg.Timeout)
	}

	printNextSteps(out, target, a, outcome)
	return nil
}

// loadConfig loads the layered configuration honoring --config.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

func configError(err error) error {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		if ve.Field != "" {
			return clierrors.InvalidConfigValue(ve.Field, err)
		}
		return clierrors.ConfigParseError(ve.FilePath, err)
	}
	return clierrors.Wrap(err, clierrors.Configuration,
		"Check your config files with 'specify config show'",
		"Durations use Go syntax, e.g. 90s or 5m",
	)
}

// resolveTarget validates the project name and --here combination.
func resolveTarget(opts initOptions) (initTarget, error) {
	here := opts.here || opts.name == "."
	if opts.here && opts.name != "" && opts.name != "." {
		return initTarget{}, clierrors.InvalidFlagCombination("--here with a project name",
			"Use either a project name or --here, not both")
	}
	if !here && opts.name == "" {
		return initTarget{}, clierrors.ProjectNameRequired()
	}

	if here {
		dir, err := ResolvePath(".")
		if err != nil {
			return initTarget{}, err
		}
		empty, err := isEmptyDir(dir)
		if err != nil {
			return initTarget{}, fmt.Errorf("reading %s: %w", dir, err)
		}
		if !empty && !opts.force {
			return initTarget{}, clierrors.DirectoryNotEmpty(dir)
		}
		return initTarget{dir: dir, name: filepath.Base(dir), here: true}, nil
	}

	dir, err := ResolvePath(opts.name)
	if err != nil {
		return initTarget{}, err
	}
	if _, err := os.Stat(dir); err == nil {
		return initTarget{}, clierrors.DirectoryExists(opts.name)
	}
	return initTarget{dir: dir, name: opts.name}, nil
}

// selectAgent resolves the agent and script type from flags, then config, then defaults.
func selectAgent(opts initOptions, cfg *config.Configuration) (agent.Agent, string, error) {
	key := lo.Ternary(opts.ai != "", opts.ai, cfg.DefaultAgent)
	if key == "" {
		return agent.Agent{}, "", clierrors.AgentRequired(agent.List())
	}
	a, ok := agent.Get(key)
	if !ok {
		return agent.Agent{}, "", clierrors.UnknownAgent(key, agent.List())
	}

	scriptType := opts.script
	if scriptType == "" {
		scriptType = lo.Ternary(cfg.ScriptType != "", cfg.ScriptType, agent.DefaultScriptType())
	}
	if !agent.IsValidScriptType(scriptType) {
		valid := lo.Keys(agent.ScriptTypes)
		sort.Strings(valid)
		return agent.Agent{}, "", clierrors.InvalidScriptType(scriptType, valid)
	}
	return a, scriptType, nil
}

// githubOptions builds the release client settings from config.
func githubOptions(cfg *config.Configuration) github.Options {
	sources := github.DefaultSources()
	if cfg.GitHubKeyring {
		sources = append(sources, github.KeyringSource{})
	}
	return github.Options{
		BaseURL:   cfg.APIBaseURL,
		Owner:     cfg.RepoOwner,
		Repo:      cfg.RepoName,
		Sources:   sources,
		UserAgent: version.UserAgent(),
	}
}

// mapProvisionError turns a pipeline failure into a CLIError with remediation.
func mapProvisionError(err error, req provision.Request, outcome *provision.Outcome, timeout time.Duration) error {
	var rle *github.RateLimitError
	switch {
	case errors.As(err, &rle):
		return clierrors.RateLimitExceeded(err)
	case errors.Is(err, context.DeadlineExceeded):
		return clierrors.ReleaseTimedOut(timeout, err)
	case errors.Is(err, github.ErrNoMatchingAsset):
		tag := lo.Ternary(req.Release != "", req.Release, "latest")
		cliErr := clierrors.NoMatchingAsset(github.AssetPattern(req.Agent, req.ScriptType), tag)
		cliErr.Cause = err
		return cliErr
	case outcome != nil && (outcome.StepStatus(provision.StepFetch) == progress.StatusError ||
		outcome.StepStatus(provision.StepDownload) == progress.StatusError):
		return clierrors.ReleaseUnavailable(err)
	default:
		return clierrors.ProvisioningFailed(err)
	}
}

func printInitHeader(out io.Writer, target initTarget, a agent.Agent, scriptType string) {
	where := target.dir
	if target.here {
		where += " (current directory)"
	}
	fmt.Fprintf(out, "%s %s\n", cCyan("Project:"), cBold(target.name))
	fmt.Fprintf(out, "%s %s\n", cCyan("Path:   "), where)
	fmt.Fprintf(out, "%s %s (%s)\n", cCyan("Agent:  "), a.Name, a.Key)
	fmt.Fprintf(out, "%s %s (%s)\n\n", cCyan("Scripts:"), scriptType, agent.ScriptTypes[scriptType])
}

func printNextSteps(out io.Writer, target initTarget, a agent.Agent, outcome *provision.Outcome) {
	fmt.Fprintf(out, "\n%s Project ready (%s)\n", cGreen("✓"), outcome.Release.TagName)

	steps := lo.KeyBy(outcome.Steps, func(s progress.Step) string { return s.Key })
	for _, key := range provision.StepKeys() {
		s, ok := steps[key]
		if ok && provision.IsAdvisory(key) && s.Status == progress.StatusError {
			fmt.Fprintf(out, "%s %s: %s\n", cYellow("⚠"), s.Label, s.Detail)
		}
	}

	fmt.Fprintf(out, "\n%s\n", cBold("Next steps:"))
	n := 1
	if !target.here {
		fmt.Fprintf(out, "  %d. cd %s\n", n, target.name)
		n++
	}
	fmt.Fprintf(out, "  %d. Start %s and use the slash commands:\n", n, a.Name)
	for _, c := range []string{"constitution", "specify", "plan", "tasks", "implement"} {
		fmt.Fprintf(out, "       /speckit.%s\n", c)
	}

	if a.Folder != "" {
		fmt.Fprintf(out, "\n%s %s\n", cYellow("Note:"),
			cDim(fmt.Sprintf("%s may hold credentials or tokens; consider adding it to .gitignore.", a.Folder)))
	}
}
