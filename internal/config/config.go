// Package config defines the revwatch configuration, loaded with viper
// from a config file, environment variables, and defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete revwatch configuration
type Config struct {
	Review  ReviewConfig  `mapstructure:"review"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Git     GitConfig     `mapstructure:"git"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ReviewConfig controls the external reviewer invocation
type ReviewConfig struct {
	// Command is the external reviewer executable (default: "pr-agent")
	Command string `mapstructure:"command"`
	// Confidence filters how aggressively suggestions are surfaced
	// Options: "high", "medium", "low"
	Confidence string `mapstructure:"confidence"`
	// BaseBranch is the branch reviewed against (empty = tool auto-detects)
	BaseBranch string `mapstructure:"base_branch"`
	// TimeoutMinutes bounds a single reviewer invocation (default: 5)
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
	// CredentialEnv names the environment variable holding the reviewer's
	// API credential (default: "REVIEW_API_KEY"; empty disables the check)
	CredentialEnv string `mapstructure:"credential_env"`
}

// Timeout returns the reviewer timeout as a duration.
func (c *ReviewConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// WatchConfig controls the filesystem watcher
type WatchConfig struct {
	// Extensions is the allow-list of file extensions that trigger reviews
	// (empty = built-in list of common source extensions)
	Extensions []string `mapstructure:"extensions"`
	// Exclusions are extra directory names to ignore, on top of the
	// built-in list (.git, node_modules, vendor, ...)
	Exclusions []string `mapstructure:"exclusions"`
	// DebounceMs is the window that batches rapid events into one trigger
	DebounceMs int `mapstructure:"debounce_ms"`
	// CooldownSeconds is the pause after a session before the next trigger
	// is accepted, so restore's own file events do not re-trigger
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
}

// Debounce returns the debounce window as a duration.
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Cooldown returns the post-session cooldown as a duration.
func (c *WatchConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// GitConfig controls git behavior
type GitConfig struct {
	// ProtectedBranches are never reviewed (default: main, master)
	ProtectedBranches []string `mapstructure:"protected_branches"`
	// LockRetryAttempts is how many times to poll for index.lock release
	// before force-clearing it
	LockRetryAttempts int `mapstructure:"lock_retry_attempts"`
	// LockRetryBackoffMs is the pause between index.lock polls
	LockRetryBackoffMs int `mapstructure:"lock_retry_backoff_ms"`
}

// LockBackoff returns the index.lock poll interval as a duration.
func (c *GitConfig) LockBackoff() time.Duration {
	return time.Duration(c.LockRetryBackoffMs) * time.Millisecond
}

// GuardConfig controls the review-in-progress marker
type GuardConfig struct {
	// Path overrides where the marker file lives
	// (empty = .revwatch/review.lock under the repository's git directory)
	Path string `mapstructure:"path"`
	// StaleAfterMinutes is the marker age beyond which a dead holder's
	// marker is reclaimed (default: 15)
	StaleAfterMinutes int `mapstructure:"stale_after_minutes"`
}

// StaleAfter returns the marker staleness bound as a duration.
func (c *GuardConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMinutes) * time.Minute
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled turns logging on or off
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level (debug, info, warn, error)
	Level string `mapstructure:"level"`
	// Path is the log file (empty = stderr)
	Path string `mapstructure:"path"`
	// MaxSizeMB rotates the log file beyond this size (0 = no rotation)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		Review: ReviewConfig{
			Command:        "pr-agent",
			Confidence:     "medium",
			BaseBranch:     "",
			TimeoutMinutes: 5,
			CredentialEnv:  "REVIEW_API_KEY",
		},
		Watch: WatchConfig{
			Extensions:      nil,
			Exclusions:      nil,
			DebounceMs:      400,
			CooldownSeconds: 2,
		},
		Git: GitConfig{
			ProtectedBranches:  []string{"main", "master"},
			LockRetryAttempts:  5,
			LockRetryBackoffMs: 200,
		},
		Guard: GuardConfig{
			Path:              "",
			StaleAfterMinutes: 15,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Path:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	// Review defaults
	viper.SetDefault("review.command", defaults.Review.Command)
	viper.SetDefault("review.confidence", defaults.Review.Confidence)
	viper.SetDefault("review.base_branch", defaults.Review.BaseBranch)
	viper.SetDefault("review.timeout_minutes", defaults.Review.TimeoutMinutes)
	viper.SetDefault("review.credential_env", defaults.Review.CredentialEnv)

	// Watch defaults
	viper.SetDefault("watch.extensions", defaults.Watch.Extensions)
	viper.SetDefault("watch.exclusions", defaults.Watch.Exclusions)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("watch.cooldown_seconds", defaults.Watch.CooldownSeconds)

	// Git defaults
	viper.SetDefault("git.protected_branches", defaults.Git.ProtectedBranches)
	viper.SetDefault("git.lock_retry_attempts", defaults.Git.LockRetryAttempts)
	viper.SetDefault("git.lock_retry_backoff_ms", defaults.Git.LockRetryBackoffMs)

	// Guard defaults
	viper.SetDefault("guard.path", defaults.Guard.Path)
	viper.SetDefault("guard.stale_after_minutes", defaults.Guard.StaleAfterMinutes)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.path", defaults.Logging.Path)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load unmarshals and validates the current viper configuration
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults on error
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the directory where the revwatch config file lives
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".revwatch"
	}
	return filepath.Join(home, ".config", "revwatch")
}
