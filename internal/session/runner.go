package session

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/git"
	"github.com/Iron-Ham/revwatch/internal/guard"
	"github.com/Iron-Ham/revwatch/internal/logging"
	"github.com/Iron-Ham/revwatch/internal/reviewer"
)

// Options configures a Runner.
type Options struct {
	// RepoDir is the repository root passed to the reviewer.
	RepoDir string
	// ProtectedBranches are trunk branches that are never reviewed.
	// Defaults to main and master.
	ProtectedBranches []string
	// Confidence is the confidence level passed to the reviewer.
	Confidence reviewer.Confidence
	// BaseBranch is the comparison branch passed to the reviewer.
	// Empty lets the reviewer auto-detect.
	BaseBranch string
}

// Runner drives review sessions through their lifecycle:
// Idle, Triggered, Guarded, Snapshotting, Reviewing, Restoring, Idle.
//
// Run returns errors classified by the errors package: IsSkip errors mean
// the session declined to run and performed no git mutation, IsSoftFailure
// errors mean the reviewer failed but the repository was still restored.
// A single Runner serializes its sessions; concurrent processes are
// serialized by the guard.
type Runner struct {
	repo    git.Repository
	keeper  *guard.Keeper
	invoker reviewer.Invoker
	log     *logging.Logger
	opts    Options

	mu    sync.Mutex
	phase Phase
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(repo git.Repository, keeper *guard.Keeper, invoker reviewer.Invoker, log *logging.Logger, opts Options) *Runner {
	if log == nil {
		log = logging.NopLogger()
	}
	if len(opts.ProtectedBranches) == 0 {
		opts.ProtectedBranches = []string{"main", "master"}
	}
	if opts.Confidence == "" {
		opts.Confidence = reviewer.ConfidenceMedium
	}

	return &Runner{
		repo:    repo,
		keeper:  keeper,
		invoker: invoker,
		log:     log,
		opts:    opts,
		phase:   PhaseIdle,
	}
}

// Phase returns the runner's current lifecycle phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Runner) setPhase(p Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
	r.log.Debug("session phase changed", "phase", p.String())
}

// Run executes one review session. The trigger names what started it
// (watch, pre-commit, post-commit, manual) and appears in every log entry.
//
// The returned Outcome is never nil. Skips and reviewer failures are
// reported through the error; once the index has been touched, restore and
// guard release run regardless of how the session ends, and the staged set
// is put back exactly as the user left it.
func (r *Runner) Run(ctx context.Context, trigger string) (*Outcome, error) {
	started := time.Now()
	out := &Outcome{Trigger: trigger}
	defer func() { out.Duration = time.Since(started) }()

	r.setPhase(PhaseTriggered)
	defer r.setPhase(PhaseIdle)

	log := r.log.WithTrigger(trigger)

	g, err := r.keeper.Acquire()
	if err != nil {
		return out, err
	}
	defer func() {
		if relErr := g.Release(); relErr != nil {
			log.Warn("failed to release review guard", "error", relErr.Error())
		}
	}()
	r.setPhase(PhaseGuarded)

	branch, err := r.repo.CurrentBranch()
	if err != nil {
		return out, errors.NewSessionError("failed to resolve current branch", err).
			WithPhase(PhaseGuarded.String()).
			WithTrigger(trigger)
	}
	log = log.WithBranch(branch)

	if r.isProtected(branch) {
		log.Debug("skipping review on protected branch")
		return out, errors.Wrapf(errors.ErrProtectedBranch, "branch %s", branch)
	}

	if checker, ok := r.invoker.(interface{ HasCredential() bool }); ok && !checker.HasCredential() {
		return out, errors.ErrMissingCredentials
	}

	hasChanges, err := r.repo.HasChanges()
	if err != nil {
		return out, errors.NewSessionError("failed to inspect working tree", err).
			WithPhase(PhaseGuarded.String()).
			WithTrigger(trigger)
	}
	if !hasChanges {
		return out, errors.ErrNoChanges
	}

	r.setPhase(PhaseSnapshotting)
	head, err := r.repo.Head()
	if err != nil {
		return out, errors.NewSessionError("failed to record original HEAD", err).
			WithPhase(PhaseSnapshotting.String()).
			WithTrigger(trigger)
	}

	sess := &Session{
		OriginalHead: head,
		Branch:       branch,
		Confidence:   r.opts.Confidence,
		BaseBranch:   r.opts.BaseBranch,
		StartedAt:    started,
	}
	out.Session = sess

	indexTree, err := r.repo.WriteIndexTree()
	if err != nil {
		return out, errors.NewSessionError("failed to snapshot staged set", err).
			WithPhase(PhaseSnapshotting.String()).
			WithTrigger(trigger)
	}

	if err := r.repo.StageAll(); err != nil {
		return out, errors.NewSessionError("failed to stage changes", err).
			WithPhase(PhaseSnapshotting.String()).
			WithTrigger(trigger)
	}

	// The index is mutated from here on, so restore runs no matter how
	// the session ends: a mixed reset discards the temporary commit if
	// one was created, and read-tree puts the staged set back exactly as
	// the user left it. A pre-commit hook that triggered this session
	// therefore hands git the same index the user's commit was started
	// with.
	defer func() {
		r.setPhase(PhaseRestoring)
		if out.Committed {
			if resetErr := r.repo.ResetMixed(sess.OriginalHead); resetErr != nil {
				log.Error("failed to restore repository state",
					"original_head", sess.OriginalHead,
					"error", resetErr.Error())
				return
			}
		}
		if treeErr := r.repo.ReadIndexTree(indexTree); treeErr != nil {
			log.Error("failed to restore staged set",
				"tree", indexTree,
				"error", treeErr.Error())
			return
		}
		out.Restored = true
		log.Info("repository state restored", "head", sess.OriginalHead)
	}()

	if err := r.repo.Commit(ReviewCommitMessage); err != nil {
		if errors.Is(err, errors.ErrNoChanges) {
			return out, errors.ErrNoChanges
		}
		return out, errors.NewSessionError("failed to create review commit", err).
			WithPhase(PhaseSnapshotting.String()).
			WithTrigger(trigger)
	}
	out.Committed = true
	log.Info("created temporary review commit", "original_head", head)

	r.setPhase(PhaseReviewing)
	result, invErr := r.invoker.Invoke(ctx, reviewer.Request{
		RepoDir:    r.opts.RepoDir,
		Confidence: sess.Confidence,
		BaseBranch: sess.BaseBranch,
	})
	out.Review = &result

	if invErr != nil {
		if errors.IsSoftFailure(invErr) {
			log.Warn("reviewer did not complete",
				"exit_code", result.ExitCode,
				"error", invErr.Error())
		}
		return out, invErr
	}

	log.Info("review completed",
		"exit_code", result.ExitCode,
		"duration_ms", result.Duration.Milliseconds())
	return out, nil
}

func (r *Runner) isProtected(branch string) bool {
	for _, protected := range r.opts.ProtectedBranches {
		if branch == protected {
			return true
		}
	}
	return false
}
