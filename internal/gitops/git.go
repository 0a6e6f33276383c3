// Package gitops provides the version-control collaborator for migration
// jobs.
//
// This file provides the concrete CLI implementation of the VersionControl
// interface defined in interfaces.go. It wraps actual git commands and is
// used in production, while the interface allows mock implementations in
// tests.
package gitops

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/ambradan/techscout/internal/errors"
)

// -----------------------------------------------------------------------------
// Command Executor
// -----------------------------------------------------------------------------

// CommandExecutor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type CommandExecutor interface {
	// Run executes a command and returns combined output.
	Run(dir string, name string, args ...string) ([]byte, error)

	// RunQuiet executes a command and returns only the error.
	RunQuiet(dir string, name string, args ...string) error
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// NewCLICommandExecutor creates a new CLI command executor.
func NewCLICommandExecutor() *CLICommandExecutor {
	return &CLICommandExecutor{}
}

// Run executes a command and returns combined output.
func (e *CLICommandExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// RunQuiet executes a command and returns only the error.
func (e *CLICommandExecutor) RunQuiet(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.Run()
}

// -----------------------------------------------------------------------------
// CLIGit - implements VersionControl
// -----------------------------------------------------------------------------

// CLIGit implements VersionControl using git CLI commands against a single
// repository working directory.
type CLIGit struct {
	repoDir  string
	executor CommandExecutor
}

// Compile-time check that CLIGit implements VersionControl.
var _ VersionControl = (*CLIGit)(nil)

// NewCLIGit creates a CLIGit bound to the given repository directory.
func NewCLIGit(repoDir string) *CLIGit {
	return &CLIGit{
		repoDir:  repoDir,
		executor: NewCLICommandExecutor(),
	}
}

// NewCLIGitWithExecutor creates a CLIGit with a custom executor.
// This is primarily useful for testing.
func NewCLIGitWithExecutor(repoDir string, executor CommandExecutor) *CLIGit {
	return &CLIGit{
		repoDir:  repoDir,
		executor: executor,
	}
}

// RepoDir returns the repository directory this client operates on.
func (g *CLIGit) RepoDir() string {
	return g.repoDir
}

// CurrentBranch returns the name of the currently checked-out branch.
func (g *CLIGit) CurrentBranch() (string, error) {
	output, err := g.executor.Run(g.repoDir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to resolve current branch", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentCommit returns the full commit ID of HEAD.
func (g *CLIGit) CurrentCommit() (string, error) {
	output, err := g.executor.Run(g.repoDir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to resolve HEAD", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (g *CLIGit) IsClean() (bool, error) {
	output, err := g.executor.Run(g.repoDir, "git", "status", "--porcelain")
	if err != nil {
		return false, errors.NewGitError("failed to check git status", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}
	return len(strings.TrimSpace(string(output))) == 0, nil
}

// BranchExists reports whether a local branch with the given name exists.
func (g *CLIGit) BranchExists(name string) (bool, error) {
	err := g.executor.RunQuiet(g.repoDir, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, errors.NewGitError("failed to check branch existence", err).
		WithRepository(g.repoDir).
		WithBranch(name)
}

// RemoteBranchExists reports whether the branch exists on origin.
func (g *CLIGit) RemoteBranchExists(name string) (bool, error) {
	output, err := g.executor.Run(g.repoDir, "git", "ls-remote", "--heads", "origin", name)
	if err != nil {
		return false, errors.NewGitError("failed to list remote branches", err).
			WithRepository(g.repoDir).
			WithBranch(name).
			WithGitOutput(string(output)).
			WithRetryable(true)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// CreateBranch creates a new branch at HEAD and switches to it.
func (g *CLIGit) CreateBranch(name string) error {
	output, err := g.executor.Run(g.repoDir, "git", "checkout", "-b", name)
	if err != nil {
		cause := err
		if strings.Contains(string(output), "already exists") {
			cause = errors.ErrBranchExists
		}
		return errors.NewGitError("failed to create branch", cause).
			WithRepository(g.repoDir).
			WithBranch(name).
			WithGitOutput(string(output))
	}
	return nil
}

// Checkout switches to an existing branch.
func (g *CLIGit) Checkout(name string) error {
	output, err := g.executor.Run(g.repoDir, "git", "checkout", name)
	if err != nil {
		return errors.NewGitError("failed to checkout branch", err).
			WithRepository(g.repoDir).
			WithBranch(name).
			WithGitOutput(string(output))
	}
	return nil
}

// CommitAll stages everything and commits, returning the new commit ID.
// A clean tree is a successful no-op returning the current HEAD.
func (g *CLIGit) CommitAll(message string) (string, error) {
	output, err := g.executor.Run(g.repoDir, "git", "add", "-A")
	if err != nil {
		return "", errors.NewGitError("failed to stage changes", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}

	output, err = g.executor.Run(g.repoDir, "git", "commit", "-m", message)
	if err != nil {
		if strings.Contains(string(output), "nothing to commit") {
			return g.CurrentCommit()
		}
		return "", errors.NewGitError("failed to commit changes", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}

	return g.CurrentCommit()
}

// CommitEmpty creates an empty commit, returning its commit ID.
func (g *CLIGit) CommitEmpty(message string) (string, error) {
	output, err := g.executor.Run(g.repoDir, "git", "commit", "--allow-empty", "-m", message)
	if err != nil {
		return "", errors.NewGitError("failed to create empty commit", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}
	return g.CurrentCommit()
}

// Push pushes the branch to origin, setting the upstream. Push failures
// are marked retryable: a local-only backup branch is still valid.
func (g *CLIGit) Push(branch string) error {
	output, err := g.executor.Run(g.repoDir, "git", "push", "-u", "origin", branch)
	if err != nil {
		return errors.NewGitError("failed to push branch", err).
			WithRepository(g.repoDir).
			WithBranch(branch).
			WithGitOutput(string(output)).
			WithRetryable(true)
	}
	return nil
}

// shortstatPattern parses "git diff --shortstat" output, e.g.
// " 3 files changed, 41 insertions(+), 7 deletions(-)".
var shortstatPattern = regexp.MustCompile(`(\d+) files? changed(?:, (\d+) insertions?\(\+\))?(?:, (\d+) deletions?\(-\))?`)

// DiffStat returns the diff size between two revisions.
func (g *CLIGit) DiffStat(base, head string) (DiffStat, error) {
	output, err := g.executor.Run(g.repoDir, "git", "diff", "--shortstat", base+".."+head)
	if err != nil {
		return DiffStat{}, errors.NewGitError("failed to compute diff stat", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}

	m := shortstatPattern.FindStringSubmatch(string(output))
	if m == nil {
		// Empty diff produces no output at all.
		return DiffStat{}, nil
	}

	stat := DiffStat{}
	stat.FilesChanged, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		stat.Insertions, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		stat.Deletions, _ = strconv.Atoi(m[3])
	}
	return stat, nil
}

// DiffNameStatus returns the per-file change list between two revisions.
func (g *CLIGit) DiffNameStatus(base, head string) ([]FileChange, error) {
	output, err := g.executor.Run(g.repoDir, "git", "diff", "--name-status", base+".."+head)
	if err != nil {
		return nil, errors.NewGitError("failed to compute name-status diff", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}

	var changes []FileChange
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		change := FileChange{Path: fields[1]}
		switch fields[0][0] {
		case 'A':
			change.Status = ChangeAdded
		case 'D':
			change.Status = ChangeDeleted
		case 'R':
			change.Status = ChangeRenamed
			if len(fields) >= 3 {
				change.OldPath = fields[1]
				change.Path = fields[2]
			}
		default:
			change.Status = ChangeModified
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (g *CLIGit) IsAncestor(ancestor, descendant string) (bool, error) {
	err := g.executor.RunQuiet(g.repoDir, "git", "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, errors.NewGitError("failed to check ancestry", err).
		WithRepository(g.repoDir)
}

// ResetHard resets the current branch and working tree to the revision.
func (g *CLIGit) ResetHard(revision string) error {
	output, err := g.executor.Run(g.repoDir, "git", "reset", "--hard", revision)
	if err != nil {
		return errors.NewGitError("failed to hard-reset", err).
			WithRepository(g.repoDir).
			WithGitOutput(string(output))
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (g *CLIGit) DeleteBranch(name string) error {
	output, err := g.executor.Run(g.repoDir, "git", "branch", "-D", name)
	if err != nil {
		return errors.NewGitError("failed to delete branch", err).
			WithRepository(g.repoDir).
			WithBranch(name).
			WithGitOutput(string(output))
	}
	return nil
}

// DeleteRemoteBranch deletes a branch on origin.
func (g *CLIGit) DeleteRemoteBranch(name string) error {
	output, err := g.executor.Run(g.repoDir, "git", "push", "origin", "--delete", name)
	if err != nil {
		return errors.NewGitError("failed to delete remote branch", err).
			WithRepository(g.repoDir).
			WithBranch(name).
			WithGitOutput(string(output)).
			WithRetryable(true)
	}
	return nil
}
