package gitops

// ChangeType classifies how a file changed between two commits.
type ChangeType string

const (
	// ChangeAdded indicates a newly added file.
	ChangeAdded ChangeType = "added"
	// ChangeModified indicates a modified file.
	ChangeModified ChangeType = "modified"
	// ChangeDeleted indicates a deleted file.
	ChangeDeleted ChangeType = "deleted"
	// ChangeRenamed indicates a renamed file.
	ChangeRenamed ChangeType = "renamed"
)

// DiffStat summarizes the size of a diff between two commits.
type DiffStat struct {
	FilesChanged int `json:"filesChanged"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// TotalLines returns insertions plus deletions.
func (d DiffStat) TotalLines() int {
	return d.Insertions + d.Deletions
}

// FileChange describes a single changed file in a diff.
type FileChange struct {
	Path    string     `json:"path"`
	OldPath string     `json:"oldPath,omitempty"` // set for renames
	Status  ChangeType `json:"status"`
}

// VersionControl is the version-control collaborator the migration agent
// depends on. The production implementation wraps the git CLI; tests
// substitute mocks. No method ever merges: merging is a human action on
// the PR host.
type VersionControl interface {
	// CurrentBranch returns the name of the currently checked-out branch.
	CurrentBranch() (string, error)

	// CurrentCommit returns the full commit ID of HEAD.
	CurrentCommit() (string, error)

	// IsClean reports whether the working tree has no uncommitted changes.
	IsClean() (bool, error)

	// BranchExists reports whether a local branch with the given name exists.
	BranchExists(name string) (bool, error)

	// RemoteBranchExists reports whether the branch exists on origin.
	RemoteBranchExists(name string) (bool, error)

	// CreateBranch creates a new branch at HEAD and switches to it.
	CreateBranch(name string) error

	// Checkout switches to an existing branch.
	Checkout(name string) error

	// CommitAll stages everything and commits, returning the new commit ID.
	// A clean tree is a successful no-op returning the current HEAD.
	CommitAll(message string) (string, error)

	// CommitEmpty creates an empty commit, returning its commit ID.
	CommitEmpty(message string) (string, error)

	// Push pushes the branch to origin, setting the upstream.
	Push(branch string) error

	// DiffStat returns the diff size between two revisions.
	DiffStat(base, head string) (DiffStat, error)

	// DiffNameStatus returns the per-file change list between two revisions.
	DiffNameStatus(base, head string) ([]FileChange, error)

	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ancestor, descendant string) (bool, error)

	// ResetHard resets the current branch and working tree to the revision.
	ResetHard(revision string) error

	// DeleteBranch force-deletes a local branch.
	DeleteBranch(name string) error

	// DeleteRemoteBranch deletes a branch on origin.
	DeleteRemoteBranch(name string) error
}
