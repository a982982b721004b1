// Package session implements the review session lifecycle: acquire the
// guard, snapshot git state, create a temporary review commit, invoke the
// external reviewer, and restore the repository afterward.
package session

import (
	"time"

	"github.com/Iron-Ham/revwatch/internal/reviewer"
)

// ReviewCommitMessage is the message used for every temporary review commit.
const ReviewCommitMessage = "[revwatch] temporary review commit"

// Phase identifies where in its lifecycle a review session currently is.
type Phase int

const (
	// PhaseIdle means no session is running.
	PhaseIdle Phase = iota
	// PhaseTriggered means a trigger arrived and preconditions are being checked.
	PhaseTriggered
	// PhaseGuarded means the review guard has been acquired.
	PhaseGuarded
	// PhaseSnapshotting means git state is being captured and committed.
	PhaseSnapshotting
	// PhaseReviewing means the external reviewer is running.
	PhaseReviewing
	// PhaseRestoring means the repository is being reset to its original state.
	PhaseRestoring
)

// String returns the lowercase name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTriggered:
		return "triggered"
	case PhaseGuarded:
		return "guarded"
	case PhaseSnapshotting:
		return "snapshotting"
	case PhaseReviewing:
		return "reviewing"
	case PhaseRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// Session records the git state captured at the start of one review run.
// OriginalHead is the commit the repository is restored to afterward.
type Session struct {
	OriginalHead string
	Branch       string
	Confidence   reviewer.Confidence
	BaseBranch   string
	StartedAt    time.Time
}

// Outcome summarizes a completed, failed, or skipped review run.
type Outcome struct {
	// Trigger names what started the run (watch, pre-commit, post-commit, manual).
	Trigger string
	// Session is nil when the run was skipped before the snapshot.
	Session *Session
	// Review holds the reviewer's result when it was invoked.
	Review *reviewer.Result
	// Committed reports whether a temporary review commit was created.
	Committed bool
	// Restored reports whether the repository state was put back: HEAD at
	// OriginalHead and the staged set as the user left it.
	Restored bool
	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
}
