package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes JSON entries to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, LevelDebug)

		logger.Info("hello", "key", "value")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log entry: %v", err)
		}
		if entry["msg"] != "hello" {
			t.Errorf("unexpected msg: %v", entry["msg"])
		}
		if entry["key"] != "value" {
			t.Errorf("unexpected key attribute: %v", entry["key"])
		}
	})

	t.Run("falls back to stderr for nil writer", func(t *testing.T) {
		logger := NewLogger(nil, LevelInfo)
		if logger.logger == nil {
			t.Error("expected logger to be created")
		}
	})

	t.Run("defaults to INFO level for invalid level string", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "invalid")

		logger.Debug("should be filtered")
		logger.Info("should appear")

		output := buf.String()
		if strings.Contains(output, "should be filtered") {
			t.Error("DEBUG entry should have been filtered at INFO level")
		}
		if !strings.Contains(output, "should appear") {
			t.Error("INFO entry was not written")
		}
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("DEBUG entry should have been filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("INFO entry should have been filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("WARN entry was not written")
	}
}

func TestPersistentAttributes(t *testing.T) {
	t.Run("WithTrigger adds trigger to every entry", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, LevelInfo).WithTrigger("watch")

		logger.Info("first")
		logger.Info("second")

		for _, line := range nonEmptyLines(buf.String()) {
			var entry map[string]any
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("failed to parse log entry: %v", err)
			}
			if entry["trigger"] != "watch" {
				t.Errorf("entry missing trigger attribute: %s", line)
			}
		}
	})

	t.Run("WithBranch adds branch to every entry", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, LevelInfo).WithBranch("feature/x")

		logger.Info("message")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log entry: %v", err)
		}
		if entry["branch"] != "feature/x" {
			t.Errorf("unexpected branch: %v", entry["branch"])
		}
	})

	t.Run("With accumulates attributes without mutating parent", func(t *testing.T) {
		var buf bytes.Buffer
		parent := NewLogger(&buf, LevelInfo)
		child := parent.With("session", "abc123")

		parent.Info("parent message")
		child.Info("child message")

		lines := nonEmptyLines(buf.String())
		if len(lines) != 2 {
			t.Fatalf("expected 2 log entries, got %d", len(lines))
		}

		var parentEntry, childEntry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &parentEntry); err != nil {
			t.Fatalf("failed to parse parent entry: %v", err)
		}
		if err := json.Unmarshal([]byte(lines[1]), &childEntry); err != nil {
			t.Fatalf("failed to parse child entry: %v", err)
		}

		if _, ok := parentEntry["session"]; ok {
			t.Error("parent logger should not have session attribute")
		}
		if childEntry["session"] != "abc123" {
			t.Errorf("child logger missing session attribute: %v", childEntry)
		}
	})

	t.Run("With ignores non-string keys", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, LevelInfo).With(42, "value", "valid", "ok")

		logger.Info("message")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log entry: %v", err)
		}
		if entry["valid"] != "ok" {
			t.Errorf("valid attribute was not kept: %v", entry)
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "revwatch.log")

	logger, err := NewFileLogger(logPath, LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	logger.Info("file message", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "file message") {
		t.Error("log entry was not written to file")
	}
}

func TestLoggerClose(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, "revwatch.log")

		logger, err := NewFileLogger(logPath, LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}

		if err := logger.Close(); err != nil {
			t.Fatalf("first Close failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Fatalf("second Close failed: %v", err)
		}
	})

	t.Run("close is a no-op for non-closable writers", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, LevelInfo)

		if err := logger.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	})
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()

	// Must not panic or write anywhere.
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	logger.WithTrigger("hook").Info("with trigger")
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Errorf("expected 4 levels, got %d", len(levels))
	}
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
