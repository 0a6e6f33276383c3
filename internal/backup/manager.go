// Package backup creates and manages the isolated backup branch a
// migration job owns. The backup branch carries an anchor commit — an
// empty commit marking the pre-migration baseline — so that at every
// point during execution there is a commit to return to.
package backup

import (
	"fmt"

	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/safety"
)

// Info records everything about a job's backup branch. It is created
// exactly once per job, before any mutation, and is read-only afterwards
// except for the Pushed flag.
type Info struct {
	BranchName    string `json:"branchName"`
	OriginBranch  string `json:"originBranch"`
	OriginCommit  string `json:"originCommit"`
	AnchorCommit  string `json:"anchorCommit"`
	AnchorMessage string `json:"anchorMessage"`
	Pushed        bool   `json:"pushed"`
}

// Manager owns backup-branch lifecycle for a single job: creation,
// verification, incremental commits, rollback, diff stats, and post-merge
// cleanup.
type Manager struct {
	git        gitops.VersionControl
	logger     *logging.Logger
	prefix     string
	pushRemote bool
}

// NewManager creates a backup manager. prefix is the branch-name prefix
// (for example "techscout"); pushRemote controls whether freshly created
// backup branches are pushed to origin.
func NewManager(git gitops.VersionControl, logger *logging.Logger, prefix string, pushRemote bool) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		git:        git,
		logger:     logger,
		prefix:     prefix,
		pushRemote: pushRemote,
	}
}

// CreateBackup creates the job's backup branch and anchor commit. The
// current branch must be unprotected and the working tree clean; the
// generated branch name must not already exist. A push failure is
// tolerated: a local-only backup is still a valid recovery point.
func (m *Manager) CreateBackup(jobID string, rec *recommend.Recommendation) (*Info, error) {
	originBranch, err := m.git.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if safety.IsProtectedBranch(originBranch) {
		return nil, errors.NewGitError("cannot run a migration from a protected branch", errors.ErrProtectedBranch).
			WithBranch(originBranch)
	}

	clean, err := m.git.IsClean()
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, errors.NewGitError("working tree must be clean before backup", errors.ErrDirtyWorkingTree).
			WithBranch(originBranch)
	}

	originCommit, err := m.git.CurrentCommit()
	if err != nil {
		return nil, err
	}

	branchName := safety.GenerateSafeBranchName(m.prefix, rec.ID, rec.Subject)
	exists, err := m.git.BranchExists(branchName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewAlreadyExistsError("backup branch", branchName)
	}

	if err := m.git.CreateBranch(branchName); err != nil {
		return nil, err
	}

	anchorMessage := fmt.Sprintf(
		"techscout: migration anchor\n\nJob: %s\nRecommendation: %s\nSubject: %s\nOrigin: %s@%s",
		jobID, rec.ID, rec.Subject, originBranch, originCommit,
	)
	anchorCommit, err := m.git.CommitEmpty(anchorMessage)
	if err != nil {
		return nil, err
	}

	info := &Info{
		BranchName:    branchName,
		OriginBranch:  originBranch,
		OriginCommit:  originCommit,
		AnchorCommit:  anchorCommit,
		AnchorMessage: anchorMessage,
	}

	if m.pushRemote {
		if err := m.git.Push(branchName); err != nil {
			m.logger.Warn("backup branch push failed, continuing with local-only backup",
				"branch", branchName, "error", err)
		} else {
			info.Pushed = true
		}
	}

	m.logger.Info("backup created",
		"branch", branchName, "anchor", anchorCommit, "origin", originBranch)
	return info, nil
}

// VerifyBackup confirms that the backup branch still exists and that the
// anchor commit is an ancestor of the branch tip.
func (m *Manager) VerifyBackup(info *Info) error {
	exists, err := m.git.BranchExists(info.BranchName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewGitError("backup branch no longer exists", errors.ErrBackupMissing).
			WithBranch(info.BranchName)
	}

	isAncestor, err := m.git.IsAncestor(info.AnchorCommit, info.BranchName)
	if err != nil {
		return err
	}
	if !isAncestor {
		return errors.NewGitError("anchor commit is not reachable from branch tip", errors.ErrBackupCorrupted).
			WithBranch(info.BranchName)
	}
	return nil
}

// RollbackToBackup hard-resets the backup branch to its anchor commit.
// The reset is irreversible for local history beyond the anchor, which is
// acceptable because it only ever targets the job's private branch.
// Rollback is idempotent: repeated calls leave the tree at the anchor.
func (m *Manager) RollbackToBackup(info *Info) error {
	if err := m.VerifyBackup(info); err != nil {
		return err
	}

	current, err := m.git.CurrentBranch()
	if err != nil {
		return err
	}
	if current != info.BranchName {
		if err := m.git.Checkout(info.BranchName); err != nil {
			return err
		}
	}

	if err := m.git.ResetHard(info.AnchorCommit); err != nil {
		return err
	}

	m.logger.Info("rolled back to anchor", "branch", info.BranchName, "anchor", info.AnchorCommit)
	return nil
}

// CommitChanges stages and commits all working-tree changes to the backup
// branch. It refuses to run while any other branch is checked out. A
// clean tree is a successful no-op.
func (m *Manager) CommitChanges(info *Info, message string) (string, error) {
	current, err := m.git.CurrentBranch()
	if err != nil {
		return "", err
	}
	if current != info.BranchName {
		return "", errors.NewGitError("refusing to commit off the backup branch", errors.ErrOffBackupBranch).
			WithBranch(current)
	}

	commit, err := m.git.CommitAll(message)
	if err != nil {
		return "", err
	}

	m.logger.Debug("committed changes", "branch", info.BranchName, "commit", commit)
	return commit, nil
}

// GetBackupDiff computes the diff size between the anchor commit and the
// backup branch tip.
func (m *Manager) GetBackupDiff(info *Info) (gitops.DiffStat, error) {
	return m.git.DiffStat(info.AnchorCommit, info.BranchName)
}

// GetBackupChanges returns the per-file change list between the anchor
// commit and the backup branch tip.
func (m *Manager) GetBackupChanges(info *Info) ([]gitops.FileChange, error) {
	return m.git.DiffNameStatus(info.AnchorCommit, info.BranchName)
}

// CleanupBackupBranch switches back to the originating branch and deletes
// the backup branch locally and, if it was pushed, on origin. This is
// only ever invoked after a successful human-approved merge.
func (m *Manager) CleanupBackupBranch(info *Info) error {
	if err := m.git.Checkout(info.OriginBranch); err != nil {
		return err
	}

	if err := m.git.DeleteBranch(info.BranchName); err != nil {
		return err
	}

	if info.Pushed {
		if err := m.git.DeleteRemoteBranch(info.BranchName); err != nil {
			m.logger.Warn("failed to delete remote backup branch",
				"branch", info.BranchName, "error", err)
		}
	}

	m.logger.Info("backup branch cleaned up", "branch", info.BranchName)
	return nil
}
