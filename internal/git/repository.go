// Package git provides the repository operations a review session needs:
// branch and HEAD inspection, staging, hook-bypassing commits, resets, and
// index-lock reclamation. The concrete implementation wraps the git CLI;
// the Repository interface in interfaces.go allows mocks in tests.
package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/revwatch/internal/errors"
)

// LockPolicy bounds how long mutating operations wait for a concurrent git
// process to release the repository's index lock before force-clearing it.
// A stale lock must not wedge the watcher forever, so after Attempts polls
// with Backoff between them the lock file is removed outright.
type LockPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultLockPolicy returns the lock policy used when none is configured.
func DefaultLockPolicy() LockPolicy {
	return LockPolicy{
		Attempts: 5,
		Backoff:  200 * time.Millisecond,
	}
}

// SkipEnvVar is set in the environment of every git command this package
// runs. Generated revwatch hooks exit early when they see it, so the tool's
// own commits and resets never re-trigger a review.
const SkipEnvVar = "REVWATCH_SKIP"

// CLIRepository implements Repository using git CLI commands.
type CLIRepository struct {
	dir      string
	executor CommandExecutor
	lock     LockPolicy
	gitDir   string // cached result of GitDir
}

// NewCLIRepository creates a CLIRepository rooted at dir.
func NewCLIRepository(dir string) *CLIRepository {
	return &CLIRepository{
		dir:      dir,
		executor: NewCLICommandExecutor(SkipEnvVar + "=1"),
		lock:     DefaultLockPolicy(),
	}
}

// NewCLIRepositoryWithExecutor creates a CLIRepository with a custom executor.
// This is primarily useful for testing.
func NewCLIRepositoryWithExecutor(dir string, executor CommandExecutor) *CLIRepository {
	return &CLIRepository{
		dir:      dir,
		executor: executor,
		lock:     DefaultLockPolicy(),
	}
}

// WithLockPolicy overrides the index-lock retry policy.
func (r *CLIRepository) WithLockPolicy(p LockPolicy) *CLIRepository {
	r.lock = p
	return r
}

// Dir returns the repository's working directory.
func (r *CLIRepository) Dir() string {
	return r.dir
}

// IsInsideWorkTree reports whether the directory is inside a git work tree.
// A git process that runs and exits nonzero means no; a git binary that
// cannot be executed at all is an error, so callers can tell a missing git
// installation apart from a plain directory.
func (r *CLIRepository) IsInsideWorkTree() (bool, error) {
	output, err := r.executor.Run(r.dir, "git", "rev-parse", "--is-inside-work-tree")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, errors.NewGitError("failed to run git", err).
			WithRepository(r.dir)
	}
	return strings.TrimSpace(string(output)) == "true", nil
}

// GitDir returns the absolute path of the repository's .git directory.
// The result is cached; the git dir does not move during a process lifetime.
func (r *CLIRepository) GitDir() (string, error) {
	if r.gitDir != "" {
		return r.gitDir, nil
	}
	output, err := r.executor.Run(r.dir, "git", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", errors.NewGitError("failed to resolve git dir", errors.ErrNotGitRepository).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	r.gitDir = strings.TrimSpace(string(output))
	return r.gitDir, nil
}

// Head returns the commit SHA that HEAD points to.
func (r *CLIRepository) Head() (string, error) {
	output, err := r.executor.Run(r.dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to resolve HEAD", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the current branch name.
func (r *CLIRepository) CurrentBranch() (string, error) {
	output, err := r.executor.Run(r.dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.NewGitError("failed to get current branch", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	branch := strings.TrimSpace(string(output))
	if branch == "HEAD" {
		return "", errors.NewGitError("not on a branch", errors.ErrBranchDetached).
			WithRepository(r.dir)
	}
	return branch, nil
}

// HasChanges reports whether the working tree has uncommitted modifications
// or untracked files. Untracked files show up in porcelain output as "??"
// entries, so a single status call covers both.
func (r *CLIRepository) HasChanges() (bool, error) {
	output, err := r.executor.Run(r.dir, "git", "status", "--porcelain")
	if err != nil {
		return false, errors.NewGitError("failed to check git status", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// StageAll stages all working-tree modifications, tracked and untracked.
func (r *CLIRepository) StageAll() error {
	if err := r.ClearStaleLock(); err != nil {
		return err
	}
	output, err := r.executor.Run(r.dir, "git", "add", "-A")
	if err != nil {
		return errors.NewGitError("failed to stage changes", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return nil
}

// Commit creates a commit with the given message. It always passes
// --no-verify: the act of creating the review commit must not re-trigger
// the hook machinery that may have triggered this session.
func (r *CLIRepository) Commit(message string) error {
	if err := r.ClearStaleLock(); err != nil {
		return err
	}
	output, err := r.executor.Run(r.dir, "git", "commit", "--no-verify", "-m", message)
	if err != nil {
		if strings.Contains(string(output), "nothing to commit") {
			return errors.NewGitError("nothing to commit", errors.ErrNoChanges).
				WithRepository(r.dir)
		}
		return errors.NewGitError("failed to commit", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return nil
}

// ResetMixed rewinds HEAD and the index to the given commit, leaving
// working-tree content in place as unstaged modifications.
func (r *CLIRepository) ResetMixed(head string) error {
	if err := r.ClearStaleLock(); err != nil {
		return err
	}
	output, err := r.executor.Run(r.dir, "git", "reset", "--mixed", head)
	if err != nil {
		return errors.NewGitError("failed to reset to "+head, err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return nil
}

// WriteIndexTree writes the current index as a tree object and returns
// its SHA.
func (r *CLIRepository) WriteIndexTree() (string, error) {
	output, err := r.executor.Run(r.dir, "git", "write-tree")
	if err != nil {
		return "", errors.NewGitError("failed to write index tree", err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

// ReadIndexTree resets the index to the given tree, leaving HEAD and the
// working tree alone. Together with WriteIndexTree this round-trips the
// staged set across a review session, which matters inside a pre-commit
// hook: git builds the enclosing commit from whatever the index holds
// after the hook returns.
func (r *CLIRepository) ReadIndexTree(tree string) error {
	if err := r.ClearStaleLock(); err != nil {
		return err
	}
	output, err := r.executor.Run(r.dir, "git", "read-tree", tree)
	if err != nil {
		return errors.NewGitError("failed to read tree "+tree, err).
			WithRepository(r.dir).
			WithGitOutput(string(output))
	}
	return nil
}

// DetectBaseBranch returns the trunk branch name (main or master).
func (r *CLIRepository) DetectBaseBranch() string {
	err := r.executor.RunQuiet(r.dir, "git", "rev-parse", "--verify", "main")
	if err == nil {
		return "main"
	}
	return "master"
}

// ClearStaleLock polls for the repository's index lock for the configured
// number of attempts with fixed backoff, then force-removes it. A concurrent
// git process normally releases the lock within the retry window; one that
// does not is assumed dead.
func (r *CLIRepository) ClearStaleLock() error {
	gitDir, err := r.GitDir()
	if err != nil {
		return err
	}
	lockPath := filepath.Join(gitDir, "index.lock")

	for attempt := 0; attempt < r.lock.Attempts; attempt++ {
		if _, err := os.Stat(lockPath); os.IsNotExist(err) {
			return nil
		}
		time.Sleep(r.lock.Backoff)
	}

	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return errors.NewGitError("failed to clear stale index lock", errors.ErrIndexLocked).
			WithRepository(r.dir)
	}
	return nil
}

// Ensure the implementation satisfies its interface at compile time.
var _ Repository = (*CLIRepository)(nil)
