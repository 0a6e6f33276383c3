package backup

import (
	"strings"
	"testing"

	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/testutil"
)

func testRecommendation() *recommend.Recommendation {
	return &recommend.Recommendation{
		ID:             "rec-2024-0042",
		Action:         recommend.ActionReplace,
		Priority:       "high",
		Confidence:     0.85,
		Subject:        "left-pad",
		Steps:          []string{"uninstall left-pad", "update imports"},
		EffortEstimate: "2 days",
		Verdict:        recommend.VerdictRecommend,
	}
}

// setupManager creates a test repo checked out on an unprotected branch.
func setupManager(t *testing.T) (*Manager, string) {
	t.Helper()
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "develop")
	testutil.CheckoutBranch(t, repo, "develop")

	git := gitops.NewCLIGit(repo)
	return NewManager(git, nil, "techscout", false), repo
}

func TestCreateBackup(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if !strings.HasPrefix(info.BranchName, "techscout/migrate-") {
		t.Errorf("branch name = %q, want techscout/migrate-* prefix", info.BranchName)
	}
	if info.OriginBranch != "develop" {
		t.Errorf("origin branch = %q, want develop", info.OriginBranch)
	}
	if info.AnchorCommit == "" || info.AnchorCommit == info.OriginCommit {
		t.Errorf("anchor commit %q should be a new commit past origin %q",
			info.AnchorCommit, info.OriginCommit)
	}
	if info.Pushed {
		t.Error("Pushed = true without a remote")
	}
	if !strings.Contains(info.AnchorMessage, "rec-2024-0042") {
		t.Errorf("anchor message missing recommendation ID: %q", info.AnchorMessage)
	}

	// The backup branch is checked out and anchored.
	if branch := testutil.GetCurrentBranch(t, repo); branch != info.BranchName {
		t.Errorf("current branch = %q, want %q", branch, info.BranchName)
	}
	if err := m.VerifyBackup(info); err != nil {
		t.Errorf("fresh backup fails verification: %v", err)
	}
}

func TestCreateBackupRefusesProtectedBranch(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo := testutil.SetupTestRepo(t) // stays on main
	git := gitops.NewCLIGit(repo)
	m := NewManager(git, nil, "techscout", false)

	_, err := m.CreateBackup("job-1", testRecommendation())
	if !errors.Is(err, errors.ErrProtectedBranch) {
		t.Errorf("error = %v, want ErrProtectedBranch", err)
	}
}

func TestCreateBackupRefusesDirtyTree(t *testing.T) {
	m, repo := setupManager(t)
	testutil.WriteFile(t, repo, "dirty.txt", "uncommitted\n")

	_, err := m.CreateBackup("job-1", testRecommendation())
	if !errors.Is(err, errors.ErrDirtyWorkingTree) {
		t.Errorf("error = %v, want ErrDirtyWorkingTree", err)
	}
}

func TestCreateBackupPushes(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo, _ := testutil.SetupTestRepoWithRemote(t)
	testutil.CreateBranch(t, repo, "develop")
	testutil.CheckoutBranch(t, repo, "develop")

	git := gitops.NewCLIGit(repo)
	m := NewManager(git, nil, "techscout", true)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if !info.Pushed {
		t.Error("Pushed = false with a working remote")
	}

	exists, err := git.RemoteBranchExists(info.BranchName)
	if err != nil || !exists {
		t.Errorf("remote branch missing after push: (%v, %v)", exists, err)
	}
}

func TestCommitChanges(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}

	testutil.WriteFile(t, repo, "src/index.js", "console.log('migrated');\n")
	commit, err := m.CommitChanges(info, "techscout: step 1: update imports")
	if err != nil {
		t.Fatalf("CommitChanges failed: %v", err)
	}
	if commit == info.AnchorCommit {
		t.Error("commit did not advance past anchor")
	}
	if testutil.HasUncommittedChanges(t, repo) {
		t.Error("working tree dirty after CommitChanges")
	}
}

func TestCommitChangesRefusesOffBranch(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}
	testutil.CheckoutBranch(t, repo, "develop")

	_, err = m.CommitChanges(info, "should not land")
	if !errors.Is(err, errors.ErrOffBackupBranch) {
		t.Errorf("error = %v, want ErrOffBackupBranch", err)
	}
}

func TestRollbackToBackup(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}

	testutil.CommitFile(t, repo, "src/a.js", "work\n", "step 1")
	testutil.CommitFile(t, repo, "src/b.js", "more work\n", "step 2")

	if err := m.RollbackToBackup(info); err != nil {
		t.Fatalf("RollbackToBackup failed: %v", err)
	}

	git := gitops.NewCLIGit(repo)
	head, err := git.CurrentCommit()
	if err != nil {
		t.Fatal(err)
	}
	if head != info.AnchorCommit {
		t.Errorf("HEAD = %q, want anchor %q", head, info.AnchorCommit)
	}
}

// Rollback must be idempotent: a second rollback is a no-op at the anchor.
func TestRollbackIdempotent(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}
	testutil.CommitFile(t, repo, "src/a.js", "work\n", "step 1")

	for i := 0; i < 3; i++ {
		if err := m.RollbackToBackup(info); err != nil {
			t.Fatalf("rollback %d failed: %v", i+1, err)
		}
	}

	git := gitops.NewCLIGit(repo)
	head, _ := git.CurrentCommit()
	if head != info.AnchorCommit {
		t.Errorf("HEAD = %q, want anchor %q", head, info.AnchorCommit)
	}
}

// Rollback works from any branch, checking the backup branch out first.
func TestRollbackFromOtherBranch(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}
	testutil.CommitFile(t, repo, "src/a.js", "work\n", "step 1")
	testutil.CheckoutBranch(t, repo, "develop")

	if err := m.RollbackToBackup(info); err != nil {
		t.Fatalf("RollbackToBackup failed: %v", err)
	}
	if branch := testutil.GetCurrentBranch(t, repo); branch != info.BranchName {
		t.Errorf("current branch = %q, want %q", branch, info.BranchName)
	}
}

func TestVerifyBackupMissingBranch(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}

	testutil.CheckoutBranch(t, repo, "develop")
	git := gitops.NewCLIGit(repo)
	if err := git.DeleteBranch(info.BranchName); err != nil {
		t.Fatal(err)
	}

	if err := m.VerifyBackup(info); !errors.Is(err, errors.ErrBackupMissing) {
		t.Errorf("error = %v, want ErrBackupMissing", err)
	}
}

func TestGetBackupDiff(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}
	testutil.CommitFile(t, repo, "src/a.js", "one\ntwo\n", "step 1")

	stat, err := m.GetBackupDiff(info)
	if err != nil {
		t.Fatalf("GetBackupDiff failed: %v", err)
	}
	if stat.FilesChanged != 1 || stat.Insertions != 2 {
		t.Errorf("stat = %+v, want 1 file, 2 insertions", stat)
	}

	changes, err := m.GetBackupChanges(info)
	if err != nil {
		t.Fatalf("GetBackupChanges failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Path != "src/a.js" || changes[0].Status != gitops.ChangeAdded {
		t.Errorf("changes = %+v", changes)
	}
}

func TestCleanupBackupBranch(t *testing.T) {
	m, repo := setupManager(t)

	info, err := m.CreateBackup("job-1", testRecommendation())
	if err != nil {
		t.Fatal(err)
	}

	if err := m.CleanupBackupBranch(info); err != nil {
		t.Fatalf("CleanupBackupBranch failed: %v", err)
	}

	if branch := testutil.GetCurrentBranch(t, repo); branch != "develop" {
		t.Errorf("current branch = %q, want develop", branch)
	}
	git := gitops.NewCLIGit(repo)
	exists, err := git.BranchExists(info.BranchName)
	if err != nil || exists {
		t.Errorf("backup branch still exists: (%v, %v)", exists, err)
	}
}
