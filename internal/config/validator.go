package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "review.timeout_minutes")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidConfidenceLevels returns the list of valid reviewer confidence levels
func ValidConfidenceLevels() []string {
	return []string{"high", "medium", "low"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateReview()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateGit()...)
	errors = append(errors, c.validateGuard()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateReview() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Review.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "review.command",
			Value:   c.Review.Command,
			Message: "must not be empty",
		})
	}

	if c.Review.Confidence != "" && !slices.Contains(ValidConfidenceLevels(), c.Review.Confidence) {
		errors = append(errors, ValidationError{
			Field:   "review.confidence",
			Value:   c.Review.Confidence,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidConfidenceLevels(), ", ")),
		})
	}

	if c.Review.TimeoutMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "review.timeout_minutes",
			Value:   c.Review.TimeoutMinutes,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	}

	if c.Watch.CooldownSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.cooldown_seconds",
			Value:   c.Watch.CooldownSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateGit() []ValidationError {
	var errors []ValidationError

	if c.Git.LockRetryAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "git.lock_retry_attempts",
			Value:   c.Git.LockRetryAttempts,
			Message: "must be at least 1",
		})
	}

	if c.Git.LockRetryBackoffMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "git.lock_retry_backoff_ms",
			Value:   c.Git.LockRetryBackoffMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateGuard() []ValidationError {
	var errors []ValidationError

	if c.Guard.StaleAfterMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "guard.stale_after_minutes",
			Value:   c.Guard.StaleAfterMinutes,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
