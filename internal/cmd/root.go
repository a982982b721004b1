// Package cmd wires the revwatch CLI: watch mode, one-shot reviews, hook
// management, and status inspection.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/revwatch/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "revwatch",
	Short: "Automatic AI code review on change",
	Long: `Revwatch triggers an external AI code-review tool whenever source
files change or commits are made. It snapshots the repository into a
temporary commit, runs the reviewer against it, and restores the
working state afterward, leaving your changes exactly as they were.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/revwatch/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/revwatch")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("REVWATCH")
	// Replace dots with underscores for nested keys in env vars
	// e.g., REVWATCH_REVIEW_CONFIDENCE for review.confidence
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
