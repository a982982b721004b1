package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/revwatch/internal/config"
	"github.com/Iron-Ham/revwatch/internal/errors"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show guard state, branch, and pending changes",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}

	branch, err := repo.CurrentBranch()
	switch {
	case err == nil:
		fmt.Printf("Branch:   %s\n", branch)
	case errors.Is(err, errors.ErrBranchDetached):
		fmt.Println("Branch:   (detached HEAD)")
	default:
		return err
	}

	base := cfg.Review.BaseBranch
	if base == "" {
		base = repo.DetectBaseBranch()
	}
	fmt.Printf("Base:     %s\n", base)

	hasChanges, err := repo.HasChanges()
	if err != nil {
		return err
	}
	if hasChanges {
		fmt.Println("Changes:  pending")
	} else {
		fmt.Println("Changes:  none")
	}

	keeper, err := newKeeper(cfg, repo)
	if err != nil {
		return err
	}
	if keeper.Held() {
		fmt.Printf("Guard:    held (%s)\n", keeper.Path())
	} else {
		fmt.Println("Guard:    free")
	}

	inv := newInvoker(cfg)
	if inv.Available() {
		fmt.Printf("Reviewer: %s\n", cfg.Review.Command)
	} else {
		fmt.Printf("Reviewer: %s (not found on PATH)\n", cfg.Review.Command)
	}
	if !inv.HasCredential() {
		fmt.Printf("Warning:  %s is not set; reviews will be skipped\n", cfg.Review.CredentialEnv)
	}

	return nil
}
