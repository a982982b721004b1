package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/revwatch/internal/config"
	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/reviewer"
	"github.com/Iron-Ham/revwatch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for file changes and trigger reviews",
	Long: `Watch the repository for source file changes and run a review
session for each batch of changes. Runs until interrupted.

Triggers arriving while a review is in progress are dropped, and a
short cool-down after each session keeps restore's own file events
from re-triggering.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logger.Close() }()

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}

	inv := newInvoker(cfg)
	if !inv.Available() {
		return fmt.Errorf("reviewer command %q not found on PATH", cfg.Review.Command)
	}

	confidence, err := reviewer.ParseConfidence(cfg.Review.Confidence)
	if err != nil {
		return err
	}

	runner, err := newRunner(cfg, repo, logger, confidence, cfg.Review.BaseBranch)
	if err != nil {
		return err
	}

	w, err := watcher.New(repo.Dir(), watcher.Options{
		Debounce:   cfg.Watch.Debounce(),
		Extensions: cfg.Watch.Extensions,
		Exclusions: cfg.Watch.Exclusions,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching for changes", "dir", repo.Dir())
	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", repo.Dir())

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case trig := <-w.Triggers():
			logger.Debug("change trigger received", "paths", len(trig.Paths))

			_, err := runner.Run(ctx, "watch")
			switch {
			case err == nil:
			case errors.IsSkip(err):
				logger.Info("review skipped", "reason", err.Error())
			case errors.IsSoftFailure(err):
				// The runner already logged the warning; keep watching.
			case errors.Is(err, errors.ErrCanceled):
				return nil
			default:
				logger.Error("review session failed", "error", err.Error())
			}

			if err := coolDown(ctx, w, cfg.Watch.Cooldown()); err != nil {
				return nil
			}
		}
	}
}

// coolDown discards triggers for the configured window after a session, so
// the file events caused by restore do not start another review.
func coolDown(ctx context.Context, w *watcher.Watcher, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return errors.ErrCanceled
		case <-w.Triggers():
			// drained
		case <-timer.C:
			return nil
		}
	}
}
