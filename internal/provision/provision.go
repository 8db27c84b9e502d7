// Package provision runs the template acquisition pipeline: it validates a
// request, fetches the matching release asset, extracts it into the target
// directory reconciling JSON configuration, and finishes the workspace. Every
// stage is reported through a progress.Tracker.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ariel-frischer/specify/internal/agent"
	"github.com/ariel-frischer/specify/internal/git"
	"github.com/ariel-frischer/specify/internal/github"
	"github.com/ariel-frischer/specify/internal/health"
	initpkg "github.com/ariel-frischer/specify/internal/init"
	"github.com/ariel-frischer/specify/internal/progress"
)

// Step keys in execution order.
const (
	StepPrecheck  = "precheck"
	StepAgentTool = "agent-tool"
	StepFetch     = "fetch"
	StepDownload  = "download"
	StepExtract   = "extract"
	StepMerge     = "merge"
	StepChmod     = "chmod"
	StepGit       = "git"
	StepRecord    = "record"
	StepCleanup   = "cleanup"
)

// DetailAborted is the detail of steps skipped because an earlier step failed.
const DetailAborted = "aborted"

// ErrStepNotPending is returned when a tracker already holds a pipeline step
// that has started or finished, for example one reused from an earlier run.
var ErrStepNotPending = errors.New("pipeline step is not pending")

type stepDef struct {
	key      string
	label    string
	advisory bool
}

var pipeline = []stepDef{
	{StepPrecheck, "Check project settings", false},
	{StepAgentTool, "Check agent tool", true},
	{StepFetch, "Fetch release metadata", false},
	{StepDownload, "Download template", false},
	{StepExtract, "Extract template", false},
	{StepMerge, "Merge configuration files", false},
	{StepChmod, "Set script permissions", true},
	{StepGit, "Initialize git repository", true},
	{StepRecord, "Record provisioning settings", true},
	{StepCleanup, "Remove temporary archive", false},
}

// StepKeys returns the pipeline step keys in order.
func StepKeys() []string {
	keys := make([]string, len(pipeline))
	for i, s := range pipeline {
		keys[i] = s.key
	}
	return keys
}

// IsAdvisory reports whether a failure of step key leaves the pipeline running.
func IsAdvisory(key string) bool {
	for _, s := range pipeline {
		if s.key == key {
			return s.advisory
		}
	}
	return false
}

// AddSteps registers every pipeline step on tracker. Pending steps already
// present are kept; any other status yields ErrStepNotPending.
func AddSteps(tracker *progress.Tracker) error {
	for _, s := range pipeline {
		if existing, ok := tracker.Step(s.key); ok {
			if existing.Status != progress.StatusPending {
				return fmt.Errorf("step %q is %s: %w", s.key, existing.Status, ErrStepNotPending)
			}
			continue
		}
		if err := tracker.Add(s.key, s.label); err != nil {
			return err
		}
	}
	return nil
}

// debugLogger is a no-op unless SetDebugLogger is called.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for the pipeline. Pass nil to disable.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Request describes one provisioning run.
type Request struct {
	// Agent is the agent key (e.g., "claude").
	Agent string
	// ScriptType is "sh" or "ps".
	ScriptType string
	// TargetDir receives the template. It is created when missing.
	TargetDir string
	// Token is an explicit GitHub token. Empty falls back to the environment.
	Token string
	// Release pins a release tag. Empty means the latest release.
	Release string
	// NoGit skips repository initialization.
	NoGit bool
	// IgnoreAgentTools skips the agent CLI check.
	IgnoreAgentTools bool
	// RemoveOnFailure deletes TargetDir when the pipeline aborts. Set it only
	// when the caller created the directory for this run.
	RemoveOnFailure bool
}

// Options configures a Provisioner.
type Options struct {
	// Timeout bounds the network stages together. Zero means github.DefaultTimeout.
	Timeout time.Duration
	// CacheDir holds the downloaded archive until cleanup. Empty means os.TempDir().
	CacheDir string
	// Version is recorded in .specify/init.yml.
	Version string
	// CommitMessage overrides git.DefaultCommitMessage.
	CommitMessage string
}

// Provisioner runs the pipeline.
type Provisioner struct {
	// GitHub is the client configuration; the request token is applied per run.
	GitHub  github.Options
	Checker *health.Checker
	Options Options
}

// New creates a provisioner.
func New(gh github.Options, checker *health.Checker, opts Options) *Provisioner {
	if checker == nil {
		checker = health.DefaultChecker()
	}
	return &Provisioner{GitHub: gh, Checker: checker, Options: opts}
}

// Outcome is the summary of a run. Callers inspect step statuses to learn
// what succeeded; Err is set when a required step failed.
type Outcome struct {
	Agent          agent.Agent
	Release        *github.Release
	Asset          *github.Asset
	RateLimit      github.RateLimit
	Extracted      *ExtractResult
	GitInitialized bool
	Steps          []progress.Step
	Err            error
}

// StepStatus returns the final status of step key, or "" when unknown.
func (o *Outcome) StepStatus(key string) progress.Status {
	for _, s := range o.Steps {
		if s.Key == key {
			return s.Status
		}
	}
	return ""
}

// run carries the state of one Provision call.
type run struct {
	p       *Provisioner
	req     Request
	tracker *progress.Tracker
	out     *Outcome
	client  *github.Client
	archive string
}

// Provision executes the pipeline for req, reporting progress on tracker.
// The returned error equals Outcome.Err.
func (p *Provisioner) Provision(ctx context.Context, req Request, tracker *progress.Tracker) (*Outcome, error) {
	if err := AddSteps(tracker); err != nil {
		return nil, fmt.Errorf("registering steps: %w", err)
	}

	r := &run{p: p, req: req, tracker: tracker, out: &Outcome{}}
	defer func() { r.out.Steps = tracker.Steps() }()

	if err := r.required(StepPrecheck, r.precheck); err != nil {
		return r.abort(err)
	}
	r.advisory(StepAgentTool, r.checkAgentTool)

	netCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	if err := r.required(StepFetch, func() (string, error) { return r.fetch(netCtx) }); err != nil {
		return r.abort(err)
	}
	if err := r.required(StepDownload, func() (string, error) { return r.download(netCtx) }); err != nil {
		return r.abort(err)
	}
	if err := r.required(StepExtract, r.extract); err != nil {
		return r.abort(err)
	}
	if err := r.required(StepMerge, r.merge); err != nil {
		return r.abort(err)
	}

	r.advisory(StepChmod, r.chmod)
	r.advisory(StepGit, r.initGit)
	r.advisory(StepRecord, r.record)
	if err := r.required(StepCleanup, r.cleanup); err != nil {
		r.out.Err = fmt.Errorf("%s: %w", StepCleanup, err)
		return r.out, r.out.Err
	}

	return r.out, nil
}

func (p *Provisioner) timeout() time.Duration {
	if p.Options.Timeout > 0 {
		return p.Options.Timeout
	}
	return github.DefaultTimeout
}

// errSkip is returned by a stage body to mark its step skipped instead of done.
type errSkip struct{ detail string }

func (e errSkip) Error() string { return e.detail }

func skip(detail string) error { return errSkip{detail} }

// step runs body between Start and a terminal transition. A tracker that
// refuses a transition fails the step.
func (r *run) step(key string, body func() (string, error)) error {
	if err := r.tracker.Start(key); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	detail, err := body()

	var s errSkip
	switch {
	case errors.As(err, &s):
		return r.track(r.tracker.Skip(key, s.detail))
	case err != nil:
		logDebug("[provision] %s failed: %v", key, err)
		if terr := r.tracker.Error(key, err.Error()); terr != nil {
			return errors.Join(err, fmt.Errorf("tracking: %w", terr))
		}
		return err
	default:
		return r.track(r.tracker.Complete(key, detail))
	}
}

func (r *run) track(err error) error {
	if err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	return nil
}

func (r *run) required(key string, body func() (string, error)) error {
	if err := r.step(key, body); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func (r *run) advisory(key string, body func() (string, error)) {
	_ = r.step(key, body)
}

// abort skips every pending step, removes the archive and, when requested,
// the target directory.
func (r *run) abort(err error) (*Outcome, error) {
	for _, s := range r.tracker.Steps() {
		if s.Status == progress.StatusPending && s.Key != StepCleanup {
			_ = r.tracker.Skip(s.Key, DetailAborted)
		}
	}
	r.advisory(StepCleanup, r.cleanup)

	if r.req.RemoveOnFailure && r.out.Agent.Key != "" {
		if rmErr := os.RemoveAll(r.req.TargetDir); rmErr != nil {
			logDebug("[provision] removing %s: %v", r.req.TargetDir, rmErr)
		}
	}

	r.out.Err = err
	return r.out, err
}

func (r *run) precheck() (string, error) {
	a, ok := agent.Get(r.req.Agent)
	if !ok {
		return "", fmt.Errorf("unknown agent %q", r.req.Agent)
	}
	if !agent.IsValidScriptType(r.req.ScriptType) {
		return "", fmt.Errorf("invalid script type %q", r.req.ScriptType)
	}
	if r.req.TargetDir == "" {
		return "", errors.New("target directory is required")
	}
	if info, err := os.Stat(r.req.TargetDir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("%s exists and is not a directory", r.req.TargetDir)
	}
	if err := os.MkdirAll(r.req.TargetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating target directory: %w", err)
	}

	r.out.Agent = a
	return fmt.Sprintf("%s / %s", a.Key, r.req.ScriptType), nil
}

func (r *run) checkAgentTool() (string, error) {
	a := r.out.Agent
	switch {
	case r.req.IgnoreAgentTools:
		return "", skip("--ignore-agent-tools")
	case !a.RequiresCLI:
		return "", skip("IDE-based agent")
	}
	path, ok := r.p.Checker.Locate(a.Tool())
	if !ok {
		return "", fmt.Errorf("%s not found", a.Tool())
	}
	return path, nil
}

func (r *run) fetch(ctx context.Context) (string, error) {
	opts := r.p.GitHub
	opts.Token = r.req.Token
	r.client = github.NewClient(opts)
	logDebug("[provision] fetching from %s (authenticated=%v)", r.client.Repository(), r.client.Authenticated())

	release, rl, err := r.client.FetchRelease(ctx, r.req.Release)
	r.out.RateLimit = rl
	if err != nil {
		return "", err
	}
	asset, err := release.FindAsset(r.out.Agent.Key, r.req.ScriptType)
	if err != nil {
		return "", err
	}

	r.out.Release = release
	r.out.Asset = &asset
	return fmt.Sprintf("%s: %s", release.TagName, asset.Name), nil
}

func (r *run) download(ctx context.Context) (string, error) {
	f, err := r.p.tempFile()
	if err != nil {
		return "", err
	}
	r.archive = f.Name()

	n, err := r.client.Download(ctx, *r.out.Asset, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("writing archive: %w", closeErr)
	}
	if err != nil {
		return "", err
	}
	return formatBytes(n), nil
}

func (p *Provisioner) tempFile() (*os.File, error) {
	dir := p.Options.CacheDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logDebug("[provision] cache dir %s unusable: %v", dir, err)
			dir = ""
		}
	}
	f, err := os.CreateTemp(dir, "spec-kit-template-*.zip")
	if err != nil {
		return nil, fmt.Errorf("creating temporary archive: %w", err)
	}
	return f, nil
}

func (r *run) extract() (string, error) {
	res, err := Extract(r.archive, r.req.TargetDir)
	if err != nil {
		return "", err
	}
	r.out.Extracted = res
	detail := fmt.Sprintf("%d files", len(res.Files))
	if res.Flattened {
		detail += ", flattened"
	}
	return detail, nil
}

func (r *run) merge() (string, error) {
	n := len(r.out.Extracted.Merged)
	if n == 0 {
		return "no existing configuration", nil
	}
	return fmt.Sprintf("%d merged", n), nil
}

func (r *run) chmod() (string, error) {
	if r.req.ScriptType != agent.ScriptShell {
		return "", skip("not needed for " + r.req.ScriptType)
	}
	if runtime.GOOS == "windows" {
		return "", skip("not supported on Windows")
	}
	res, err := EnsureExecutable(r.req.TargetDir)
	if err != nil {
		return "", err
	}
	if len(res.Failures) > 0 {
		return "", fmt.Errorf("%d updated, %d failed: %s", res.Updated, len(res.Failures), res.Failures[0])
	}
	return fmt.Sprintf("%d updated", res.Updated), nil
}

func (r *run) initGit() (string, error) {
	if r.req.NoGit {
		return "", skip("--no-git")
	}
	if git.IsRepo(r.req.TargetDir) {
		return "", skip("existing repository")
	}
	hash, err := git.InitRepo(r.req.TargetDir, r.p.Options.CommitMessage)
	if err != nil {
		return "", err
	}
	r.out.GitInitialized = true
	return "commit " + hash[:7], nil
}

func (r *run) record() (string, error) {
	s := initpkg.NewSettings(r.p.Options.Version)
	s.Agent = r.out.Agent.Key
	s.ScriptType = r.req.ScriptType
	s.ReleaseTag = r.out.Release.TagName
	s.Asset = r.out.Asset.Name
	s.GitInitialized = r.out.GitInitialized

	path := initpkg.PathIn(r.req.TargetDir)
	action := "created"
	if initpkg.ExistsAt(path) {
		action = "updated"
	}
	if err := initpkg.Record(path, s); err != nil {
		return "", err
	}
	return action + " " + initpkg.DefaultPath(), nil
}

func (r *run) cleanup() (string, error) {
	if r.archive == "" {
		return "", skip("nothing to remove")
	}
	if err := os.Remove(r.archive); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	r.archive = ""
	return "", nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
