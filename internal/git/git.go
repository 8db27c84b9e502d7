// Package git provides repository detection and initialization for freshly
// provisioned workspaces. It uses the go-git library so no git CLI is needed.
package git

import (
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultCommitMessage is the message of the first commit in a new workspace.
const DefaultCommitMessage = "Initial commit from Specify template"

// Signature used when no git identity is configured for the user.
const (
	fallbackName  = "Specify"
	fallbackEmail = "specify@localhost"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens the repository rooted exactly at path.
// The parent chain is not searched: a subdirectory of a repository is not a repository root.
func openRepo(path string) (*git.Repository, error) {
	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          false,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// IsRepo reports whether path is the root of a git repository.
// A missing path, a plain file, or a directory without git metadata all yield false.
func IsRepo(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		logDebug("[git] IsRepo(%s): not a directory", path)
		return false
	}

	_, err = openRepo(path)
	result := err == nil
	logDebug("[git] IsRepo(%s): %v", path, result)
	return result
}

// InitRepo creates a repository at path, stages every file in it, and records
// an initial commit with message. It returns the hash of that commit.
func InitRepo(path, message string) (string, error) {
	if message == "" {
		message = DefaultCommitMessage
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return "", fmt.Errorf("initializing repository at %s: %w", path, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("staging files: %w", err)
	}

	sig := signature(repo)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("creating initial commit: %w", err)
	}

	logDebug("[git] InitRepo: %s committed as %s <%s>", hash.String()[:7], sig.Name, sig.Email)
	return hash.String(), nil
}

// signature returns the user's configured identity, falling back to a fixed one.
func signature(repo *git.Repository) *object.Signature {
	name, email := fallbackName, fallbackEmail

	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		logDebug("[git] reading global config: %v", err)
	} else {
		if cfg.User.Name != "" {
			name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			email = cfg.User.Email
		}
	}

	return &object.Signature{Name: name, Email: email, When: time.Now()}
}
