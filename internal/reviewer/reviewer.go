// Package reviewer invokes the external AI review tool.
//
// The review logic itself lives entirely in the external command; this
// package passes it a confidence level and base branch, bounds its runtime,
// and interprets its exit status. The Invoker interface keeps the session
// state machine testable without the real tool.
package reviewer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/revwatch/internal/errors"
)

// Confidence controls how aggressively the external reviewer surfaces
// suggestions.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence converts a string to a Confidence.
// An empty string yields the default, ConfidenceMedium.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	case "medium":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	default:
		return "", fmt.Errorf("%w: confidence level %q (valid: high, medium, low)", errors.ErrInvalidInput, s)
	}
}

// ValidConfidenceLevels returns the accepted confidence level strings.
func ValidConfidenceLevels() []string {
	return []string{"high", "medium", "low"}
}

// Request carries the configuration for one reviewer invocation.
type Request struct {
	// RepoDir is the repository the reviewer runs in.
	RepoDir string
	// Confidence filters how aggressively suggestions are surfaced.
	Confidence Confidence
	// BaseBranch is the branch reviewed against. Empty lets the external
	// tool auto-detect it.
	BaseBranch string
}

// Result captures the outcome of a reviewer invocation.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Invoker is the capability interface for running the external reviewer.
// The session runner depends on this, not on the concrete command, so tests
// substitute fakes.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
}

// CommandInvoker shells out to the configured review command.
type CommandInvoker struct {
	// Command is the external reviewer executable, e.g. "pr-agent".
	Command string
	// Timeout bounds a single invocation. Exceeding it is a soft failure.
	Timeout time.Duration
	// CredentialEnv names the environment variable holding the API
	// credential the external tool needs.
	CredentialEnv string
}

// NewCommandInvoker creates a CommandInvoker.
func NewCommandInvoker(command string, timeout time.Duration, credentialEnv string) *CommandInvoker {
	return &CommandInvoker{
		Command:       command,
		Timeout:       timeout,
		CredentialEnv: credentialEnv,
	}
}

// Available reports whether the reviewer command can be found on PATH.
func (c *CommandInvoker) Available() bool {
	_, err := exec.LookPath(c.Command)
	return err == nil
}

// HasCredential reports whether the reviewer credential is configured.
// Without it the external tool cannot reach its model backend, so sessions
// skip instead of creating commits that cannot be reviewed.
func (c *CommandInvoker) HasCredential() bool {
	if c.CredentialEnv == "" {
		return true
	}
	return strings.TrimSpace(os.Getenv(c.CredentialEnv)) != ""
}

// Invoke runs the external reviewer. A nonzero exit status is returned as
// ErrReviewerFailed and a deadline overrun as a TimeoutError; both are soft
// failures the caller logs and survives.
func (c *CommandInvoker) Invoke(ctx context.Context, req Request) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"--confidence-level", string(req.Confidence)}
	if req.BaseBranch != "" {
		args = append(args, "--base-branch", req.BaseBranch)
	}

	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Dir = req.RepoDir

	start := time.Now()
	output, err := cmd.CombinedOutput()
	result := Result{
		Output:   string(output),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		return result, errors.NewTimeoutError("reviewer invocation", c.Timeout).WithCause(ctx.Err())
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%w: exit status %d", errors.ErrReviewerFailed, result.ExitCode)
		}
		return result, fmt.Errorf("%w: %v", errors.ErrReviewerNotFound, err)
	}

	return result, nil
}

// Ensure the implementation satisfies its interface at compile time.
var _ Invoker = (*CommandInvoker)(nil)
