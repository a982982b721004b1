// Package errors provides centralized error definitions and error handling
// utilities for the revwatch codebase. It defines domain-specific errors,
// error constructors with context wrapping, and classification helpers that
// map errors onto the review-session error taxonomy:
//
//   - Precondition skips: protected branch, clean working tree, missing
//     credentials, guard already held. Sessions end with no side effects.
//   - Soft failures: the external reviewer exited nonzero or timed out.
//     The session restores state and the watcher keeps running.
//   - Fatal setup errors: everything else surfaced before a session starts.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewGitError("failed to stage changes", baseErr).
//		WithRepository(dir).
//		WithGitOutput(string(output))
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrGuardBusy) { ... }
//	if errors.IsSkip(err) { ... }
//	if errors.IsSoftFailure(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Precondition-skip sentinel errors. A session that ends with one of these
// performed no git mutation.
var (
	// ErrGuardBusy indicates another review session holds the guard marker.
	ErrGuardBusy = New("review already in progress")
	// ErrProtectedBranch indicates the current branch is a protected trunk branch.
	ErrProtectedBranch = New("current branch is protected")
	// ErrNoChanges indicates the working tree has no uncommitted or untracked changes.
	ErrNoChanges = New("no changes to review")
	// ErrMissingCredentials indicates the reviewer credential is not configured.
	ErrMissingCredentials = New("reviewer credential not configured")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates the directory is not inside a git work tree.
	ErrNotGitRepository = New("not a git repository")
	// ErrIndexLocked indicates the repository index lock could not be cleared.
	ErrIndexLocked = New("repository index is locked")
	// ErrBranchDetached indicates HEAD is not on any branch.
	ErrBranchDetached = New("detached HEAD")
)

// Reviewer-related sentinel errors
var (
	// ErrReviewerFailed indicates the external reviewer exited nonzero.
	ErrReviewerFailed = New("reviewer exited with nonzero status")
	// ErrReviewerNotFound indicates the reviewer command is not on PATH.
	ErrReviewerNotFound = New("reviewer command not found")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// GitError represents errors related to git operations.
//
// Example:
//
//	err := errors.NewGitError("failed to commit", baseErr)
//	err = err.WithBranch("feature-x").WithRepository("/path/to/repo")
type GitError struct {
	baseError
	Branch     string
	Repository string
	GitOutput  string // Captured git command output
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = output
	return e
}

// WithSeverity sets the error severity.
func (e *GitError) WithSeverity(s Severity) *GitError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, strings.TrimSpace(e.GitOutput))
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SessionError represents errors related to a review session.
//
// Example:
//
//	err := errors.NewSessionError("restore failed", baseErr)
//	err = err.WithPhase("restoring").WithTrigger("watch")
type SessionError struct {
	baseError
	Phase   string
	Trigger string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithPhase adds the session phase to the error context.
func (e *SessionError) WithPhase(phase string) *SessionError {
	e.Phase = phase
	return e
}

// WithTrigger adds the trigger source (watch, pre-commit, post-commit, cli)
// to the error context.
func (e *SessionError) WithTrigger(trigger string) *SessionError {
	e.Trigger = trigger
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}
	if e.Trigger != "" {
		parts = append(parts, fmt.Sprintf("trigger=%s", e.Trigger))
	}

	prefix := "session error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("session error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that exceeded its deadline.
//
// Example:
//
//	err := errors.NewTimeoutError("reviewer invocation", 5*time.Minute)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:  operation,
			severity: SeverityWarning,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsSkip returns true if the error represents a precondition skip: a session
// that declined to run and performed no git mutation.
//
// Example:
//
//	if errors.IsSkip(err) {
//	    log.Info("session skipped", "reason", err)
//	    return nil
//	}
func IsSkip(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrGuardBusy) ||
		Is(err, ErrProtectedBranch) ||
		Is(err, ErrNoChanges) ||
		Is(err, ErrMissingCredentials)
}

// IsSoftFailure returns true if the error represents a reviewer-side failure
// that should be logged as a warning while the session's restore still runs
// and the watcher keeps going.
func IsSoftFailure(err error) bool {
	if err == nil {
		return false
	}

	var timeout *TimeoutError
	if As(err, &timeout) {
		return true
	}

	return Is(err, ErrReviewerFailed) || Is(err, ErrTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors without an attached severity.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	type severer interface {
		Severity() Severity
	}
	var sv severer
	if As(err, &sv) {
		return sv.Severity()
	}

	if IsSkip(err) {
		return SeverityInfo
	}
	if IsSoftFailure(err) {
		return SeverityWarning
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to snapshot repository")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to restore HEAD %s", head)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
