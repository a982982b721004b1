package git

import (
	"os"
	"os/exec"
)

// CommandExecutor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type CommandExecutor interface {
	// Run executes a command and returns combined output.
	Run(dir string, name string, args ...string) ([]byte, error)

	// RunQuiet executes a command and returns only the error.
	RunQuiet(dir string, name string, args ...string) error
}

// CLICommandExecutor executes commands using os/exec. Extra environment
// variables are appended to the inherited environment on every command;
// the session runner uses this to mark its own git invocations so generated
// hooks can tell them apart from user-driven ones.
type CLICommandExecutor struct {
	extraEnv []string
}

// NewCLICommandExecutor creates a new CLI command executor.
// Each extraEnv entry must be in "KEY=value" form.
func NewCLICommandExecutor(extraEnv ...string) *CLICommandExecutor {
	return &CLICommandExecutor{extraEnv: extraEnv}
}

// Run executes a command and returns combined output.
func (e *CLICommandExecutor) Run(dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(e.extraEnv) > 0 {
		cmd.Env = append(os.Environ(), e.extraEnv...)
	}
	return cmd.CombinedOutput()
}

// RunQuiet executes a command and returns only the error.
func (e *CLICommandExecutor) RunQuiet(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(e.extraEnv) > 0 {
		cmd.Env = append(os.Environ(), e.extraEnv...)
	}
	return cmd.Run()
}
