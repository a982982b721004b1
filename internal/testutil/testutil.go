// Package testutil provides testing utilities for revwatch tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository for testing.
// Returns the path to the repository. The repository is automatically
// cleaned up when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	if err := runGit(dir, "init"); err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}

	// Configure git user for commits
	if err := runGit(dir, "config", "user.email", "test@revwatch.dev"); err != nil {
		t.Fatalf("failed to configure git email: %v", err)
	}
	if err := runGit(dir, "config", "user.name", "Revwatch Test"); err != nil {
		t.Fatalf("failed to configure git name: %v", err)
	}

	// Create initial commit so HEAD resolves
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	if err := runGit(dir, "add", "."); err != nil {
		t.Fatalf("failed to stage files: %v", err)
	}
	if err := runGit(dir, "commit", "-m", "Initial commit"); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}

	// Normalize the trunk name (some systems default to master)
	if err := runGit(dir, "branch", "-M", "main"); err != nil {
		t.Fatalf("failed to rename branch to main: %v", err)
	}

	return dir
}

// SetupTestRepoOnBranch creates a test repository checked out on a
// non-trunk branch, which is where review sessions actually run.
func SetupTestRepoOnBranch(t *testing.T, branch string) string {
	t.Helper()

	dir := SetupTestRepo(t)
	if err := runGit(dir, "checkout", "-b", branch); err != nil {
		t.Fatalf("failed to create branch %s: %v", branch, err)
	}
	return dir
}

// WriteFile creates or overwrites a file in the repository without
// staging or committing it.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// CommitFile creates or updates a file and commits it.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	if err := runGit(repoDir, "add", path); err != nil {
		t.Fatalf("failed to stage file %s: %v", path, err)
	}
	if err := runGit(repoDir, "commit", "-m", message); err != nil {
		t.Fatalf("failed to commit file %s: %v", path, err)
	}
}

// StageFile stages a single path for the next commit.
func StageFile(t *testing.T, repoDir, path string) {
	t.Helper()

	if err := runGit(repoDir, "add", path); err != nil {
		t.Fatalf("failed to stage file %s: %v", path, err)
	}
}

// StagedFiles returns the paths staged for the next commit.
func StagedFiles(t *testing.T, repoDir string) []string {
	t.Helper()

	out := gitOutput(t, repoDir, "diff", "--cached", "--name-only")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Commit commits whatever is currently staged.
func Commit(t *testing.T, repoDir, message string) {
	t.Helper()

	if err := runGit(repoDir, "commit", "-m", message); err != nil {
		t.Fatalf("failed to commit staged changes: %v", err)
	}
}

// CheckoutBranch switches to a branch, creating it if needed.
func CheckoutBranch(t *testing.T, repoDir, branch string) {
	t.Helper()

	if err := runGit(repoDir, "checkout", "-B", branch); err != nil {
		t.Fatalf("failed to checkout branch %s: %v", branch, err)
	}
}

// GetCurrentBranch returns the current branch name.
func GetCurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()
	return gitOutput(t, repoDir, "rev-parse", "--abbrev-ref", "HEAD")
}

// GetHead returns the commit SHA HEAD points to.
func GetHead(t *testing.T, repoDir string) string {
	t.Helper()
	return gitOutput(t, repoDir, "rev-parse", "HEAD")
}

// GetCommitCount returns the number of commits reachable from HEAD.
func GetCommitCount(t *testing.T, repoDir string) int {
	t.Helper()

	out := gitOutput(t, repoDir, "rev-list", "--count", "HEAD")
	count, err := strconv.Atoi(out)
	if err != nil {
		t.Fatalf("failed to parse commit count %q: %v", out, err)
	}
	return count
}

// HasUncommittedChanges returns true if the repository has uncommitted
// changes or untracked files.
func HasUncommittedChanges(t *testing.T, repoDir string) bool {
	t.Helper()
	return gitOutput(t, repoDir, "status", "--porcelain") != ""
}

// ReadFile returns the content of a file in the repository.
func ReadFile(t *testing.T, repoDir, path string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(repoDir, path))
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

// runGit runs a git command in the given directory.
func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd.Run()
}

// gitOutput runs a git command and returns its trimmed stdout.
func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %s failed: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output))
}
