// Package hooks installs and removes the git hooks that trigger reviews on
// commit. Each hook file carries a marker-delimited revwatch section, so
// existing user hooks are preserved on install and restored on uninstall.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/git"
	"github.com/Iron-Ham/revwatch/internal/logging"
)

// Hook names a git hook revwatch manages.
type Hook string

const (
	// HookPreCommit runs a review before a commit is recorded.
	HookPreCommit Hook = "pre-commit"
	// HookPostCommit runs a review after a commit is recorded.
	HookPostCommit Hook = "post-commit"
)

// ManagedHooks returns the hooks revwatch installs.
func ManagedHooks() []Hook {
	return []Hook{HookPreCommit, HookPostCommit}
}

// Status describes one managed hook's installation state.
type Status struct {
	Hook      Hook
	Path      string
	Installed bool
}

// Installer manages revwatch sections in the repository's hook files.
type Installer struct {
	gitDir string
	log    *logging.Logger
}

// NewInstaller creates an Installer for the repository whose git directory
// is gitDir. A nil logger disables logging.
func NewInstaller(gitDir string, log *logging.Logger) *Installer {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Installer{gitDir: gitDir, log: log}
}

// Install writes the revwatch section into every managed hook, creating
// hook files as needed and replacing any stale revwatch section in place.
func (i *Installer) Install() error {
	for _, hook := range ManagedHooks() {
		if err := i.installHook(hook); err != nil {
			return err
		}
		i.log.Info("installed git hook", "hook", string(hook))
	}
	return nil
}

// Uninstall removes the revwatch section from every managed hook. A hook
// file left with nothing but a shebang is deleted entirely.
func (i *Installer) Uninstall() error {
	for _, hook := range ManagedHooks() {
		if err := i.uninstallHook(hook); err != nil {
			return err
		}
	}
	return nil
}

// Statuses reports the installation state of every managed hook.
func (i *Installer) Statuses() []Status {
	statuses := make([]Status, 0, len(ManagedHooks()))
	for _, hook := range ManagedHooks() {
		path := i.hookPath(hook)
		installed := false
		if content, err := os.ReadFile(path); err == nil {
			installed = strings.Contains(string(content), markerStart(hook))
		}
		statuses = append(statuses, Status{Hook: hook, Path: path, Installed: installed})
	}
	return statuses
}

func (i *Installer) hookPath(hook Hook) string {
	return filepath.Join(i.gitDir, "hooks", string(hook))
}

func (i *Installer) installHook(hook Hook) error {
	path := i.hookPath(hook)
	section := hookSection(hook)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read hook %s", hook)
	}

	var content string
	if os.IsNotExist(err) || len(existing) == 0 {
		content = "#!/bin/sh\n" + section
	} else {
		content = replaceSection(string(existing), hook, section)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create hooks directory")
	}
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return errors.Wrapf(err, "failed to write hook %s", hook)
	}
	return nil
}

func (i *Installer) uninstallHook(hook Hook) error {
	path := i.hookPath(hook)

	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read hook %s", hook)
	}

	content := removeSection(string(existing), hook)
	if content == string(existing) {
		return nil
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(err, "failed to remove hook %s", hook)
		}
		i.log.Info("removed git hook", "hook", string(hook))
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return errors.Wrapf(err, "failed to write hook %s", hook)
	}
	i.log.Info("removed revwatch section from git hook", "hook", string(hook))
	return nil
}

func markerStart(hook Hook) string {
	return fmt.Sprintf("# >>> revwatch %s hook >>>", hook)
}

func markerEnd(hook Hook) string {
	return fmt.Sprintf("# <<< revwatch %s hook <<<", hook)
}

// hookSection generates the script block for one hook. The block never
// exits, so it composes with whatever else the hook file contains, and it
// never blocks the commit: review failures are swallowed with || true.
// REVWATCH_SKIP is set by revwatch's own git commands so their commits do
// not trigger another review.
func hookSection(hook Hook) string {
	var b strings.Builder
	b.WriteString(markerStart(hook) + "\n")
	b.WriteString(fmt.Sprintf("if [ -z \"$%s\" ]; then\n", git.SkipEnvVar))
	b.WriteString(fmt.Sprintf("  revwatch review --hook %s || true\n", hook))
	b.WriteString("fi\n")
	b.WriteString(markerEnd(hook) + "\n")
	return b.String()
}

// replaceSection swaps the revwatch section in existing hook content, or
// appends one when no section is present.
func replaceSection(existing string, hook Hook, section string) string {
	startIdx := strings.Index(existing, markerStart(hook))
	endIdx := strings.Index(existing, markerEnd(hook))

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(markerEnd(hook)):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

// removeSection strips the revwatch section, leaving the rest untouched.
func removeSection(existing string, hook Hook) string {
	startIdx := strings.Index(existing, markerStart(hook))
	endIdx := strings.Index(existing, markerEnd(hook))

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(markerEnd(hook)):]
	after = strings.TrimPrefix(after, "\n")
	return before + after
}
