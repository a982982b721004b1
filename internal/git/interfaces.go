package git

// Repository abstracts the git operations a review session performs.
// The CLI implementation in repository.go wraps actual git commands, while
// tests substitute mocks so session logic can run without a real repository.
type Repository interface {
	// IsInsideWorkTree reports whether the directory is inside a git work tree.
	IsInsideWorkTree() (bool, error)

	// GitDir returns the absolute path of the repository's .git directory.
	GitDir() (string, error)

	// Head returns the commit SHA that HEAD points to.
	Head() (string, error)

	// CurrentBranch returns the current branch name.
	// Returns ErrBranchDetached if HEAD is not on a branch.
	CurrentBranch() (string, error)

	// HasChanges reports whether the working tree has uncommitted
	// modifications or untracked files.
	HasChanges() (bool, error)

	// StageAll stages all working-tree modifications, tracked and untracked.
	StageAll() error

	// Commit creates a commit with the given message, bypassing commit hooks.
	Commit(message string) error

	// ResetMixed rewinds HEAD and the index to the given commit, leaving
	// working-tree content in place as unstaged modifications.
	ResetMixed(head string) error

	// WriteIndexTree writes the current index as a tree object and returns
	// its SHA, snapshotting the staged set before a session mutates it.
	WriteIndexTree() (string, error)

	// ReadIndexTree resets the index to the given tree without touching
	// HEAD or the working tree.
	ReadIndexTree(tree string) error

	// ClearStaleLock waits for the repository index lock to disappear and
	// force-removes it once the retry budget is exhausted.
	ClearStaleLock() error
}
