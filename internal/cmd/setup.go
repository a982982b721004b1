package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/revwatch/internal/config"
	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/git"
	"github.com/Iron-Ham/revwatch/internal/guard"
	"github.com/Iron-Ham/revwatch/internal/logging"
	"github.com/Iron-Ham/revwatch/internal/reviewer"
	"github.com/Iron-Ham/revwatch/internal/session"
)

// newLogger builds the logger the configuration asks for. Disabled logging
// yields a no-op logger; an empty path logs to stderr.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	if cfg.Logging.Path == "" {
		return logging.NewLogger(os.Stderr, cfg.Logging.Level), nil
	}
	return logging.NewFileLogger(cfg.Logging.Path, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// openRepository resolves the working directory into a git repository.
// Being outside a work tree is a fatal setup error.
func openRepository(cfg *config.Config) (*git.CLIRepository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	repo := git.NewCLIRepository(cwd).WithLockPolicy(git.LockPolicy{
		Attempts: cfg.Git.LockRetryAttempts,
		Backoff:  cfg.Git.LockBackoff(),
	})

	inside, err := repo.IsInsideWorkTree()
	if err != nil {
		return nil, fmt.Errorf("failed to run git (is it installed?): %w", err)
	}
	if !inside {
		return nil, errors.Wrapf(errors.ErrNotGitRepository, "%s", cwd)
	}
	return repo, nil
}

// newKeeper builds the review guard. The marker defaults to
// .revwatch/review.lock under the repository's git directory.
func newKeeper(cfg *config.Config, repo *git.CLIRepository) (*guard.Keeper, error) {
	path := cfg.Guard.Path
	if path == "" {
		gitDir, err := repo.GitDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(gitDir, ".revwatch", "review.lock")
	}
	return guard.NewKeeper(path, cfg.Guard.StaleAfter()), nil
}

func newInvoker(cfg *config.Config) *reviewer.CommandInvoker {
	return reviewer.NewCommandInvoker(cfg.Review.Command, cfg.Review.Timeout(), cfg.Review.CredentialEnv)
}

// newRunner assembles a session runner from the configuration. Flag
// overrides for confidence and base branch are applied by the callers.
func newRunner(cfg *config.Config, repo *git.CLIRepository, log *logging.Logger, confidence reviewer.Confidence, baseBranch string) (*session.Runner, error) {
	keeper, err := newKeeper(cfg, repo)
	if err != nil {
		return nil, err
	}

	return session.NewRunner(repo, keeper, newInvoker(cfg), log, session.Options{
		RepoDir:           repo.Dir(),
		ProtectedBranches: cfg.Git.ProtectedBranches,
		Confidence:        confidence,
		BaseBranch:        baseBranch,
	}), nil
}
