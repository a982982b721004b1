package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/git"
	"github.com/Iron-Ham/revwatch/internal/guard"
	"github.com/Iron-Ham/revwatch/internal/reviewer"
	"github.com/Iron-Ham/revwatch/internal/testutil"
)

func newIntegrationRunner(t *testing.T, repoDir string, inv reviewer.Invoker) *Runner {
	t.Helper()
	repo := git.NewCLIRepository(repoDir)
	keeper := guard.NewKeeper(filepath.Join(t.TempDir(), "review.lock"), guard.DefaultStaleAfter)
	return NewRunner(repo, keeper, inv, nil, Options{RepoDir: repoDir})
}

func TestSessionIntegration(t *testing.T) {
	testutil.SkipIfNoGit(t)

	t.Run("feature branch review restores everything", func(t *testing.T) {
		repoDir := testutil.SetupTestRepoOnBranch(t, "feature/x")
		testutil.CommitFile(t, repoDir, "main.go", "package main\n", "add main")

		// One modified tracked file and one untracked file
		modified := "package main\n\nfunc main() {}\n"
		testutil.WriteFile(t, repoDir, "main.go", modified)
		untracked := "helper content\n"
		testutil.WriteFile(t, repoDir, "helper.go", untracked)

		headBefore := testutil.GetHead(t, repoDir)
		countBefore := testutil.GetCommitCount(t, repoDir)

		inv := &fakeInvoker{hasCred: true, result: reviewer.Result{ExitCode: 0}}
		runner := newIntegrationRunner(t, repoDir, inv)

		out, err := runner.Run(context.Background(), "manual")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !out.Committed || !out.Restored {
			t.Fatalf("expected commit and restore, got %+v", out)
		}

		// Exactly one invocation at the default confidence level
		if len(inv.requests) != 1 {
			t.Fatalf("expected exactly one invocation, got %d", len(inv.requests))
		}
		if inv.requests[0].Confidence != reviewer.ConfidenceMedium {
			t.Errorf("unexpected confidence: %q", inv.requests[0].Confidence)
		}

		// HEAD and commit count are back where they started
		if head := testutil.GetHead(t, repoDir); head != headBefore {
			t.Errorf("HEAD not restored: got %s, want %s", head, headBefore)
		}
		if count := testutil.GetCommitCount(t, repoDir); count != countBefore {
			t.Errorf("commit count changed: got %d, want %d", count, countBefore)
		}

		// The user's modifications survive byte for byte, back as unstaged
		if got := testutil.ReadFile(t, repoDir, "main.go"); got != modified {
			t.Errorf("modified file content changed: %q", got)
		}
		if got := testutil.ReadFile(t, repoDir, "helper.go"); got != untracked {
			t.Errorf("untracked file content changed: %q", got)
		}
		if !testutil.HasUncommittedChanges(t, repoDir) {
			t.Error("expected changes to remain uncommitted after restore")
		}
	})

	t.Run("staged set survives a session so an enclosing commit succeeds", func(t *testing.T) {
		repoDir := testutil.SetupTestRepoOnBranch(t, "feature/x")
		testutil.CommitFile(t, repoDir, "main.go", "package main\n", "add main")

		// The user staged one change and left another unstaged, then ran
		// git commit. The pre-commit hook fires a session mid-commit.
		testutil.WriteFile(t, repoDir, "main.go", "package main\n\nfunc main() {}\n")
		testutil.StageFile(t, repoDir, "main.go")
		testutil.WriteFile(t, repoDir, "scratch.go", "package main\n")

		countBefore := testutil.GetCommitCount(t, repoDir)

		inv := &fakeInvoker{hasCred: true, result: reviewer.Result{ExitCode: 0}}
		runner := newIntegrationRunner(t, repoDir, inv)

		if _, err := runner.Run(context.Background(), "pre-commit"); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		// The staging boundary is back exactly as the user left it
		staged := testutil.StagedFiles(t, repoDir)
		if len(staged) != 1 || staged[0] != "main.go" {
			t.Fatalf("staged set not restored: %v", staged)
		}

		// Git builds the user's commit from the index after the hook
		// returns, so that commit must still go through.
		testutil.Commit(t, repoDir, "user commit")
		if count := testutil.GetCommitCount(t, repoDir); count != countBefore+1 {
			t.Errorf("commit count = %d, want %d", count, countBefore+1)
		}
		if got := testutil.ReadFile(t, repoDir, "scratch.go"); got != "package main\n" {
			t.Errorf("unstaged file content changed: %q", got)
		}
		if len(testutil.StagedFiles(t, repoDir)) != 0 {
			t.Error("expected an empty staged set after the user's commit")
		}
	})

	t.Run("reviewer failure still restores HEAD", func(t *testing.T) {
		repoDir := testutil.SetupTestRepoOnBranch(t, "feature/x")
		testutil.WriteFile(t, repoDir, "new.go", "package new\n")
		headBefore := testutil.GetHead(t, repoDir)

		inv := &fakeInvoker{
			hasCred: true,
			result:  reviewer.Result{ExitCode: 1},
			err:     errors.Wrap(errors.ErrReviewerFailed, "exit status 1"),
		}
		runner := newIntegrationRunner(t, repoDir, inv)

		out, err := runner.Run(context.Background(), "watch")
		if !errors.IsSoftFailure(err) {
			t.Fatalf("expected soft failure, got %v", err)
		}
		if !out.Restored {
			t.Error("expected restore to run after reviewer failure")
		}
		if head := testutil.GetHead(t, repoDir); head != headBefore {
			t.Errorf("HEAD not restored: got %s, want %s", head, headBefore)
		}
	})

	t.Run("protected branch leaves repository untouched", func(t *testing.T) {
		repoDir := testutil.SetupTestRepo(t)
		testutil.WriteFile(t, repoDir, "change.go", "package change\n")
		headBefore := testutil.GetHead(t, repoDir)

		inv := &fakeInvoker{hasCred: true}
		runner := newIntegrationRunner(t, repoDir, inv)

		_, err := runner.Run(context.Background(), "watch")
		if !errors.Is(err, errors.ErrProtectedBranch) {
			t.Fatalf("expected ErrProtectedBranch, got %v", err)
		}
		if head := testutil.GetHead(t, repoDir); head != headBefore {
			t.Errorf("HEAD changed on a protected branch")
		}
		if len(inv.requests) != 0 {
			t.Error("reviewer should not run on a protected branch")
		}
	})

	t.Run("clean working tree creates no commit", func(t *testing.T) {
		repoDir := testutil.SetupTestRepoOnBranch(t, "feature/x")
		countBefore := testutil.GetCommitCount(t, repoDir)

		runner := newIntegrationRunner(t, repoDir, &fakeInvoker{hasCred: true})

		_, err := runner.Run(context.Background(), "watch")
		if !errors.Is(err, errors.ErrNoChanges) {
			t.Fatalf("expected ErrNoChanges, got %v", err)
		}
		if count := testutil.GetCommitCount(t, repoDir); count != countBefore {
			t.Errorf("commit count changed: got %d, want %d", count, countBefore)
		}
	})

	t.Run("stale index lock is cleared and the session completes", func(t *testing.T) {
		repoDir := testutil.SetupTestRepoOnBranch(t, "feature/x")
		testutil.WriteFile(t, repoDir, "new.go", "package new\n")
		headBefore := testutil.GetHead(t, repoDir)

		lockPath := filepath.Join(repoDir, ".git", "index.lock")
		if err := os.WriteFile(lockPath, nil, 0644); err != nil {
			t.Fatalf("failed to plant index.lock: %v", err)
		}

		repo := git.NewCLIRepository(repoDir).
			WithLockPolicy(git.LockPolicy{Attempts: 2, Backoff: 10 * time.Millisecond})
		keeper := guard.NewKeeper(filepath.Join(t.TempDir(), "review.lock"), guard.DefaultStaleAfter)
		inv := &fakeInvoker{hasCred: true, result: reviewer.Result{ExitCode: 0}}
		runner := NewRunner(repo, keeper, inv, nil, Options{RepoDir: repoDir})

		out, err := runner.Run(context.Background(), "manual")
		if err != nil {
			t.Fatalf("Run failed with planted index.lock: %v", err)
		}
		if !out.Restored {
			t.Error("expected restore despite the stale lock")
		}
		if head := testutil.GetHead(t, repoDir); head != headBefore {
			t.Errorf("HEAD not restored: got %s, want %s", head, headBefore)
		}
		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("expected the stale index.lock to be cleared")
		}
	})
}
