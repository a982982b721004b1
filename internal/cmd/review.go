package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/revwatch/internal/config"
	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/reviewer"
)

const durationPrecision = 10 * time.Millisecond

var (
	reviewHook       string
	reviewConfidence string
	reviewBaseBranch string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run one review session now",
	Long: `Run a single review session against the current uncommitted changes.

This is the command the installed git hooks invoke. Precondition skips
(protected branch, nothing to review, missing credential, review already
in progress) and reviewer failures exit zero so a hook never blocks a
commit; only setup errors exit nonzero.`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewHook, "hook", "", "hook that invoked the review (pre-commit, post-commit)")
	reviewCmd.Flags().StringVar(&reviewConfidence, "confidence-level", "", "reviewer confidence level (high, medium, low)")
	reviewCmd.Flags().StringVar(&reviewBaseBranch, "base-branch", "", "branch to review against")
}

func runReview(cmd *cobra.Command, args []string) error {
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

	confidenceValue := cfg.Review.Confidence
	if reviewConfidence != "" {
		confidenceValue = reviewConfidence
	}
	confidence, err := reviewer.ParseConfidence(confidenceValue)
	if err != nil {
		return fmt.Errorf("invalid confidence level %q (valid: %s)",
			confidenceValue, strings.Join(reviewer.ValidConfidenceLevels(), ", "))
	}

	baseBranch := cfg.Review.BaseBranch
	if reviewBaseBranch != "" {
		baseBranch = reviewBaseBranch
	}

	runner, err := newRunner(cfg, repo, logger, confidence, baseBranch)
	if err != nil {
		return err
	}

	trigger := "manual"
	if reviewHook != "" {
		trigger = reviewHook
	}

	out, runErr := runner.Run(cmd.Context(), trigger)
	switch {
	case runErr == nil:
		fmt.Printf("Review completed in %s\n", out.Duration.Round(durationPrecision))
		if out.Review != nil && out.Review.Output != "" {
			fmt.Println(out.Review.Output)
		}
		return nil

	case errors.IsSkip(runErr):
		fmt.Printf("Review skipped: %v\n", runErr)
		return nil

	case errors.IsSoftFailure(runErr):
		fmt.Printf("Warning: reviewer did not complete: %v\n", runErr)
		if out.Review != nil && out.Review.Output != "" {
			fmt.Println(out.Review.Output)
		}
		return nil

	default:
		return runErr
	}
}
