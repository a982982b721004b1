package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupGitDir(t *testing.T) string {
	t.Helper()
	gitDir := filepath.Join(t.TempDir(), ".git")
	if err := os.MkdirAll(filepath.Join(gitDir, "hooks"), 0755); err != nil {
		t.Fatalf("failed to create hooks dir: %v", err)
	}
	return gitDir
}

func readHook(t *testing.T, gitDir string, hook Hook) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(gitDir, "hooks", string(hook)))
	if err != nil {
		t.Fatalf("failed to read hook %s: %v", hook, err)
	}
	return string(content)
}

func TestInstall(t *testing.T) {
	t.Run("creates hook files with shebang", func(t *testing.T) {
		gitDir := setupGitDir(t)
		installer := NewInstaller(gitDir, nil)

		if err := installer.Install(); err != nil {
			t.Fatalf("Install failed: %v", err)
		}

		for _, hook := range ManagedHooks() {
			content := readHook(t, gitDir, hook)
			if !strings.HasPrefix(content, "#!/bin/sh\n") {
				t.Errorf("%s missing shebang", hook)
			}
			if !strings.Contains(content, markerStart(hook)) {
				t.Errorf("%s missing start marker", hook)
			}
			if !strings.Contains(content, "revwatch review --hook "+string(hook)) {
				t.Errorf("%s missing review invocation", hook)
			}
			if !strings.Contains(content, "REVWATCH_SKIP") {
				t.Errorf("%s missing skip guard", hook)
			}
			if !strings.Contains(content, "|| true") {
				t.Errorf("%s review failure could block the commit", hook)
			}

			info, err := os.Stat(filepath.Join(gitDir, "hooks", string(hook)))
			if err != nil {
				t.Fatalf("failed to stat hook: %v", err)
			}
			if info.Mode()&0111 == 0 {
				t.Errorf("%s is not executable", hook)
			}
		}
	})

	t.Run("preserves existing hook content", func(t *testing.T) {
		gitDir := setupGitDir(t)
		existing := "#!/bin/bash\necho custom pre-commit step\n"
		hookPath := filepath.Join(gitDir, "hooks", "pre-commit")
		if err := os.WriteFile(hookPath, []byte(existing), 0755); err != nil {
			t.Fatal(err)
		}

		installer := NewInstaller(gitDir, nil)
		if err := installer.Install(); err != nil {
			t.Fatalf("Install failed: %v", err)
		}

		content := readHook(t, gitDir, HookPreCommit)
		if !strings.Contains(content, "echo custom pre-commit step") {
			t.Error("existing hook content was lost")
		}
		if !strings.Contains(content, markerStart(HookPreCommit)) {
			t.Error("revwatch section was not appended")
		}
	})

	t.Run("reinstall replaces the section in place", func(t *testing.T) {
		gitDir := setupGitDir(t)
		installer := NewInstaller(gitDir, nil)

		if err := installer.Install(); err != nil {
			t.Fatalf("first Install failed: %v", err)
		}
		if err := installer.Install(); err != nil {
			t.Fatalf("second Install failed: %v", err)
		}

		content := readHook(t, gitDir, HookPreCommit)
		if n := strings.Count(content, markerStart(HookPreCommit)); n != 1 {
			t.Errorf("expected exactly one revwatch section, found %d", n)
		}
	})
}

func TestUninstall(t *testing.T) {
	t.Run("deletes hook files it created", func(t *testing.T) {
		gitDir := setupGitDir(t)
		installer := NewInstaller(gitDir, nil)

		if err := installer.Install(); err != nil {
			t.Fatalf("Install failed: %v", err)
		}
		if err := installer.Uninstall(); err != nil {
			t.Fatalf("Uninstall failed: %v", err)
		}

		for _, hook := range ManagedHooks() {
			if _, err := os.Stat(filepath.Join(gitDir, "hooks", string(hook))); !os.IsNotExist(err) {
				t.Errorf("%s should have been deleted", hook)
			}
		}
	})

	t.Run("preserves user content", func(t *testing.T) {
		gitDir := setupGitDir(t)
		existing := "#!/bin/bash\necho custom step\n"
		hookPath := filepath.Join(gitDir, "hooks", "post-commit")
		if err := os.WriteFile(hookPath, []byte(existing), 0755); err != nil {
			t.Fatal(err)
		}

		installer := NewInstaller(gitDir, nil)
		if err := installer.Install(); err != nil {
			t.Fatalf("Install failed: %v", err)
		}
		if err := installer.Uninstall(); err != nil {
			t.Fatalf("Uninstall failed: %v", err)
		}

		content := readHook(t, gitDir, HookPostCommit)
		if !strings.Contains(content, "echo custom step") {
			t.Error("user hook content was lost")
		}
		if strings.Contains(content, markerStart(HookPostCommit)) {
			t.Error("revwatch section was not removed")
		}
	})

	t.Run("no-op without installed hooks", func(t *testing.T) {
		gitDir := setupGitDir(t)
		installer := NewInstaller(gitDir, nil)

		if err := installer.Uninstall(); err != nil {
			t.Fatalf("Uninstall failed: %v", err)
		}
	})

	t.Run("leaves foreign hook files alone", func(t *testing.T) {
		gitDir := setupGitDir(t)
		existing := "#!/bin/sh\necho unrelated\n"
		hookPath := filepath.Join(gitDir, "hooks", "pre-commit")
		if err := os.WriteFile(hookPath, []byte(existing), 0755); err != nil {
			t.Fatal(err)
		}

		installer := NewInstaller(gitDir, nil)
		if err := installer.Uninstall(); err != nil {
			t.Fatalf("Uninstall failed: %v", err)
		}

		if got := readHook(t, gitDir, HookPreCommit); got != existing {
			t.Errorf("foreign hook file was modified: %q", got)
		}
	})
}

func TestStatuses(t *testing.T) {
	gitDir := setupGitDir(t)
	installer := NewInstaller(gitDir, nil)

	for _, st := range installer.Statuses() {
		if st.Installed {
			t.Errorf("%s reported installed before Install", st.Hook)
		}
	}

	if err := installer.Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	for _, st := range installer.Statuses() {
		if !st.Installed {
			t.Errorf("%s reported not installed after Install", st.Hook)
		}
		if st.Path != filepath.Join(gitDir, "hooks", string(st.Hook)) {
			t.Errorf("unexpected path: %s", st.Path)
		}
	}
}

func TestSectionHelpers(t *testing.T) {
	section := hookSection(HookPreCommit)

	t.Run("replace appends when no section exists", func(t *testing.T) {
		existing := "#!/bin/sh\necho hi"
		got := replaceSection(existing, HookPreCommit, section)
		if !strings.Contains(got, "echo hi") || !strings.Contains(got, markerStart(HookPreCommit)) {
			t.Errorf("unexpected result: %q", got)
		}
	})

	t.Run("remove is identity without markers", func(t *testing.T) {
		existing := "#!/bin/sh\necho hi\n"
		if got := removeSection(existing, HookPreCommit); got != existing {
			t.Errorf("content changed: %q", got)
		}
	})

	t.Run("replace then remove round-trips", func(t *testing.T) {
		existing := "#!/bin/sh\necho before\n"
		installed := replaceSection(existing, HookPreCommit, section)
		restored := removeSection(installed, HookPreCommit)
		if restored != existing {
			t.Errorf("round trip changed content: %q", restored)
		}
	})
}
