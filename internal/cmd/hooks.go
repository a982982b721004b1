package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/revwatch/internal/config"
	"github.com/Iron-Ham/revwatch/internal/hooks"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the revwatch git hooks",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-commit and post-commit review hooks",
	Long: `Install revwatch sections into the repository's pre-commit and
post-commit hooks. Existing hook content is preserved; reinstalling
replaces a previous revwatch section in place.`,
	RunE: runHooksInstall,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the revwatch sections from the git hooks",
	RunE:  runHooksUninstall,
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which revwatch hooks are installed",
	RunE:  runHooksStatus,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)
}

func newHookInstaller() (*hooks.Installer, error) {
	cfg := config.Get()
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return hooks.NewInstaller(gitDir, logger), nil
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	installer, err := newHookInstaller()
	if err != nil {
		return err
	}
	if err := installer.Install(); err != nil {
		return err
	}
	for _, st := range installer.Statuses() {
		fmt.Printf("Installed %s hook at %s\n", st.Hook, st.Path)
	}
	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	installer, err := newHookInstaller()
	if err != nil {
		return err
	}
	if err := installer.Uninstall(); err != nil {
		return err
	}
	fmt.Println("Removed revwatch git hooks")
	return nil
}

func runHooksStatus(cmd *cobra.Command, args []string) error {
	installer, err := newHookInstaller()
	if err != nil {
		return err
	}
	for _, st := range installer.Statuses() {
		state := "not installed"
		if st.Installed {
			state = "installed"
		}
		fmt.Printf("%-12s %s (%s)\n", st.Hook, state, st.Path)
	}
	return nil
}
