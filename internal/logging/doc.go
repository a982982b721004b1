// Package logging provides structured logging for revwatch.
//
// This package wraps Go's log/slog to produce JSON-formatted logs for
// watch-mode daemons and hook invocations. Review sessions run in the
// background, so structured, filterable logs are the primary way to
// understand after the fact why a trigger was skipped or a restore ran.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (trigger source, branch)
//   - Log rotation with configurable size limits
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger backed by a rotating log file:
//
//	logger, err := logging.NewFileLogger("/path/to/revwatch.log", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("review session started", "branch", "feature/x")
//	logger.Warn("reviewer exited nonzero", "exit_code", 1)
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	watchLogger := logger.WithTrigger("watch")
//	branchLogger := watchLogger.WithBranch("feature/x")
//
//	// All entries from branchLogger include trigger and branch
//	branchLogger.Info("snapshot created", "head", "abc1234")
//
// # Log Rotation
//
// Watch mode can run for days; rotation keeps the log bounded:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10, // Rotate when file exceeds 10MB
//	    MaxBackups: 3,  // Keep 3 backup files
//	}
//
// Rotated files are named revwatch.log.1, revwatch.log.2, etc., where .1
// is the most recent backup.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
package logging
