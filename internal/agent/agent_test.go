package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ambradan/techscout/internal/config"
	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/executor"
	"github.com/ambradan/techscout/internal/joblock"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/report"
	"github.com/ambradan/techscout/internal/testutil"
)

// recordingPRHost captures created pull requests.
type recordingPRHost struct {
	created []report.CreatePROptions
}

func (h *recordingPRHost) CreatePullRequest(_ context.Context, opts report.CreatePROptions) (*report.PullRequest, error) {
	h.created = append(h.created, opts)
	return &report.PullRequest{
		URL:    "https://github.com/acme/app/pull/12",
		Number: 12,
		Title:  opts.Title,
		Head:   opts.Head,
		Base:   opts.Base,
		Status: "open",
	}, nil
}

func agentRecommendation() *recommend.Recommendation {
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

// testConfig keeps job artifacts outside the repository so the preflight
// clean-tree check is not tripped by the agent's own files, and replaces
// the project test command with a stub that always passes.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.JobsDir = filepath.Join(t.TempDir(), "jobs")
	cfg.Backup.PushOnCreate = false
	cfg.PR.Enabled = false
	cfg.CI.TestCommand = "echo '3 passing'"
	cfg.Logging.Enabled = false
	return cfg
}

func newTestAgent(t *testing.T, cfg *config.Config) (*Agent, string) {
	t.Helper()
	testutil.SkipIfNoGit(t)

	dir := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, dir, "develop")
	testutil.CheckoutBranch(t, dir, "develop")
	return New(cfg, dir), dir
}

// writeRecFile marshals a recommendation to a standalone JSON file.
func writeRecFile(t *testing.T, rec *recommend.Recommendation) string {
	t.Helper()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "recommendation.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// seedApprovedJob writes job artifacts for an approved plan whose steps
// are all manual, so execution mutates nothing and runs no commands.
func seedApprovedJob(t *testing.T, a *Agent) string {
	t.Helper()

	jobID := "job-20240601-120000"
	jobDir := a.JobDir(jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := writeJSON(filepath.Join(jobDir, recommendationFile), agentRecommendation()); err != nil {
		t.Fatal(err)
	}

	p := &plan.Plan{
		ID:               jobID,
		RecommendationID: "rec-2024-0042",
		Subject:          "left-pad",
		Action:           recommend.ActionReplace,
		Steps: []plan.Step{
			{
				Number:          1,
				Action:          "rewrite imports by hand",
				Command:         "# manual: rewrite imports by hand",
				Risk:            plan.RiskLow,
				ExpectedOutcome: "Requires manual execution; treated as completed with a manual-intervention note",
			},
		},
		EstimatedFiles:     1,
		EstimatedLines:     50,
		WithinSafetyLimits: true,
		Status:             plan.StatusApproved,
		Decision:           &plan.Decision{Actor: "casey", Time: time.Now()},
		CreatedAt:          time.Now(),
	}
	if err := p.Save(filepath.Join(jobDir, planFile)); err != nil {
		t.Fatal(err)
	}
	return jobID
}

func TestPlanCreatesJob(t *testing.T) {
	a, _ := newTestAgent(t, testConfig(t))
	recPath := writeRecFile(t, agentRecommendation())

	jobID, p, err := a.Plan(recPath)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("empty job ID")
	}
	if p.Status != plan.StatusPending {
		t.Errorf("plan status = %q, want pending", p.Status)
	}

	for _, name := range []string{recommendationFile, planFile} {
		if _, err := os.Stat(filepath.Join(a.JobDir(jobID), name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}

	// The persisted plan round-trips.
	_, loaded, err := a.LoadJob(jobID)
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}
	if loaded.ID != p.ID || len(loaded.Steps) != len(p.Steps) {
		t.Errorf("loaded plan %+v does not match generated plan", loaded)
	}
}

func TestPlanRejectsDeferredRecommendation(t *testing.T) {
	a, _ := newTestAgent(t, testConfig(t))

	rec := agentRecommendation()
	rec.Verdict = recommend.VerdictDefer

	_, _, err := a.Plan(writeRecFile(t, rec))
	if !errors.Is(err, errors.ErrRecommendationDeferred) {
		t.Errorf("error = %v, want ErrRecommendationDeferred", err)
	}
}

func TestRunRequiresApprovedPlan(t *testing.T) {
	a, _ := newTestAgent(t, testConfig(t))
	jobID, _, err := a.Plan(writeRecFile(t, agentRecommendation()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Run(context.Background(), jobID, false)
	if !errors.Is(err, errors.ErrPlanNotApproved) {
		t.Errorf("error = %v, want ErrPlanNotApproved", err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	a, dir := newTestAgent(t, cfg)
	jobID := seedApprovedJob(t, a)

	out, err := a.Run(context.Background(), jobID, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !out.Preflight.AllPassed {
		t.Fatalf("preflight failed: %+v", out.Preflight.Checks)
	}
	if out.Backup == nil || out.Backup.BranchName == "" {
		t.Fatalf("no backup info: %+v", out.Backup)
	}
	if out.Result.Outcome != executor.OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed (error: %s)", out.Result.Outcome, out.Result.Error)
	}
	if out.Report == nil {
		t.Fatal("no report generated")
	}
	if out.PR != nil {
		t.Errorf("PR created with pr.enabled=false: %+v", out.PR)
	}

	// The repo is left on the backup branch with a clean tree.
	if got := testutil.GetCurrentBranch(t, dir); got != out.Backup.BranchName {
		t.Errorf("current branch = %q, want %q", got, out.Backup.BranchName)
	}
	if testutil.HasUncommittedChanges(t, dir) {
		t.Error("working tree dirty after the run")
	}

	jobDir := a.JobDir(jobID)
	for _, name := range []string{preflightFile, backupFile, resultFile, reportFile} {
		if _, err := os.Stat(filepath.Join(jobDir, name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}
}

func TestRunCreatesPullRequest(t *testing.T) {
	testutil.SkipIfNoGit(t)

	cfg := testConfig(t)
	cfg.PR.Enabled = true
	cfg.PR.Labels = []string{"dependencies"}

	dir, _ := testutil.SetupTestRepoWithRemote(t)
	testutil.CreateBranch(t, dir, "develop")
	testutil.CheckoutBranch(t, dir, "develop")

	host := &recordingPRHost{}
	a := New(cfg, dir).WithPRHost(host)
	jobID := seedApprovedJob(t, a)

	out, err := a.Run(context.Background(), jobID, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.PR == nil || out.PR.Number != 12 {
		t.Fatalf("pr = %+v", out.PR)
	}
	if len(host.created) != 1 {
		t.Fatalf("host called %d times, want 1", len(host.created))
	}
	opts := host.created[0]
	if opts.Head != out.Backup.BranchName || opts.Base != "develop" {
		t.Errorf("pr head/base = %q/%q", opts.Head, opts.Base)
	}
	if !out.Backup.Pushed {
		t.Error("backup branch not pushed before the PR")
	}

	if _, err := os.Stat(filepath.Join(a.JobDir(jobID), prFile)); err != nil {
		t.Errorf("pr artifact missing: %v", err)
	}
}

func TestRunPreflightFailureBlocksBackup(t *testing.T) {
	a, dir := newTestAgent(t, testConfig(t))
	jobID := seedApprovedJob(t, a)
	testutil.WriteFile(t, dir, "dirty.txt", "uncommitted\n")

	out, err := a.Run(context.Background(), jobID, false)
	if !errors.Is(err, errors.ErrOperationFailed) {
		t.Fatalf("error = %v, want ErrOperationFailed", err)
	}
	if out.Preflight.AllPassed {
		t.Error("preflight reported passing on a dirty tree")
	}
	if out.Backup != nil {
		t.Errorf("backup created despite failed preflight: %+v", out.Backup)
	}

	// The preflight artifact is persisted for inspection; no backup record.
	if _, err := os.Stat(filepath.Join(a.JobDir(jobID), preflightFile)); err != nil {
		t.Errorf("preflight artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(a.JobDir(jobID), backupFile)); !os.IsNotExist(err) {
		t.Error("backup artifact written despite failed preflight")
	}
}

func TestRollbackAndCleanup(t *testing.T) {
	cfg := testConfig(t)
	a, dir := newTestAgent(t, cfg)
	jobID := seedApprovedJob(t, a)

	out, err := a.Run(context.Background(), jobID, false)
	if err != nil {
		t.Fatal(err)
	}

	info, err := a.Rollback(jobID)
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if info.BranchName != out.Backup.BranchName {
		t.Errorf("rollback loaded branch %q, want %q", info.BranchName, out.Backup.BranchName)
	}

	if _, err := a.Cleanup(jobID); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if got := testutil.GetCurrentBranch(t, dir); got != "develop" {
		t.Errorf("current branch after cleanup = %q, want develop", got)
	}
}

func TestRollbackMissingBackup(t *testing.T) {
	a, _ := newTestAgent(t, testConfig(t))

	_, err := a.Rollback("job-nonexistent")
	if !errors.Is(err, errors.ErrBackupMissing) {
		t.Errorf("error = %v, want ErrBackupMissing", err)
	}
}

func TestListJobs(t *testing.T) {
	a, _ := newTestAgent(t, testConfig(t))

	jobs, err := a.ListJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("jobs = %v, want none", jobs)
	}

	for _, id := range []string{"job-20240601-100000", "job-20240601-110000"} {
		if err := os.MkdirAll(a.JobDir(id), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err = a.ListJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 || jobs[0] != "job-20240601-110000" {
		t.Errorf("jobs = %v, want newest first", jobs)
	}
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newTestAgent(t, cfg)
	jobID := seedApprovedJob(t, a)

	lock, err := joblock.Acquire(a.jobsDir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, err = a.Run(context.Background(), jobID, false)
	if !errors.Is(err, errors.ErrJobsLocked) {
		t.Fatalf("Run error = %v, want ErrJobsLocked", err)
	}
}

func TestRunReleasesLock(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newTestAgent(t, cfg)
	jobID := seedApprovedJob(t, a)

	if _, err := a.Run(context.Background(), jobID, false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lockPath := filepath.Join(a.jobsDir, joblock.LockFileName)
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file still present after run")
	}
}

func TestPreflightDryRun(t *testing.T) {
	cfg := testConfig(t)
	a, dir := newTestAgent(t, cfg)
	jobID := seedApprovedJob(t, a)

	result, err := a.Preflight(context.Background(), jobID, false)
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if !result.AllPassed {
		t.Fatalf("preflight failed: %+v", result.Checks)
	}

	if _, err := os.Stat(filepath.Join(a.JobDir(jobID), preflightFile)); err != nil {
		t.Errorf("preflight artifact not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(a.JobDir(jobID), backupFile)); !os.IsNotExist(err) {
		t.Errorf("dry run must not create a backup")
	}
	if branch := testutil.GetCurrentBranch(t, dir); branch != "develop" {
		t.Errorf("current branch = %q, want develop untouched", branch)
	}
}
