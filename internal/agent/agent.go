// Package agent orchestrates a migration job end to end: plan
// generation, the preflight gate, backup branch creation, supervised
// execution, reporting, and the review pull request. Every phase leaves
// a JSON artifact under the job directory so a job can be resumed,
// rolled back, or cleaned up by a later invocation.
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ambradan/techscout/internal/backup"
	"github.com/ambradan/techscout/internal/ci"
	"github.com/ambradan/techscout/internal/config"
	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/executor"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/joblock"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/preflight"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/report"
)

// Agent drives migration jobs against a single repository.
type Agent struct {
	cfg     *config.Config
	git     gitops.VersionControl
	prHost  report.PRHost
	repoDir string
	jobsDir string
}

// New creates an agent for the repository at repoDir.
func New(cfg *config.Config, repoDir string) *Agent {
	return &Agent{
		cfg:     cfg,
		git:     gitops.NewCLIGit(repoDir),
		prHost:  report.NewGHClient(repoDir, nil),
		repoDir: repoDir,
		jobsDir: cfg.Paths.ResolveJobsDir(repoDir),
	}
}

// WithGit overrides the version control backend, primarily for tests.
func (a *Agent) WithGit(git gitops.VersionControl) *Agent {
	a.git = git
	return a
}

// WithPRHost overrides the pull request host, primarily for tests.
func (a *Agent) WithPRHost(host report.PRHost) *Agent {
	a.prHost = host
	return a
}

// NewJobID generates a timestamp-based job identifier.
func NewJobID() string {
	return fmt.Sprintf("job-%s", time.Now().Format("20060102-150405"))
}

// JobDir returns the artifact directory for a job.
func (a *Agent) JobDir(jobID string) string {
	return filepath.Join(a.jobsDir, jobID)
}

// ListJobs returns the IDs of all jobs with an artifact directory,
// newest first by directory name (IDs are timestamp-ordered).
func (a *Agent) ListJobs() ([]string, error) {
	entries, err := os.ReadDir(a.jobsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var jobs []string
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].IsDir() {
			jobs = append(jobs, entries[i].Name())
		}
	}
	return jobs, nil
}

// newJobLogger creates the per-job logger, writing to the job directory
// when logging is enabled.
func (a *Agent) newJobLogger(jobID string) *logging.Logger {
	if !a.cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	logger, err := logging.NewLogger(a.JobDir(jobID), a.cfg.Logging.Level)
	if err != nil {
		return logging.NopLogger()
	}
	return logger
}

// Plan starts a new job from a recommendation file: it validates the
// recommendation, generates the migration plan, and persists both under
// a fresh job directory. The returned plan is pending approval.
func (a *Agent) Plan(recPath string) (string, *plan.Plan, error) {
	rec, err := recommend.Load(recPath)
	if err != nil {
		return "", nil, err
	}
	if err := rec.Validate(); err != nil {
		return "", nil, err
	}
	if rec.Verdict == recommend.VerdictDefer {
		return "", nil, errors.Wrap(errors.ErrRecommendationDeferred, rec.ID)
	}

	jobID := NewJobID()
	jobDir := a.JobDir(jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", nil, err
	}

	logger := a.newJobLogger(jobID)
	defer logger.Close()

	planner := plan.NewPlanner(a.cfg.Safety, logger.WithJob(jobID))
	p, err := planner.GeneratePlan(jobID, rec)
	if err != nil {
		return "", nil, err
	}

	if err := writeJSON(filepath.Join(jobDir, recommendationFile), rec); err != nil {
		return "", nil, err
	}
	if err := p.Save(filepath.Join(jobDir, planFile)); err != nil {
		return "", nil, err
	}

	return jobID, p, nil
}

// LoadJob reads a job's recommendation and plan artifacts.
func (a *Agent) LoadJob(jobID string) (*recommend.Recommendation, *plan.Plan, error) {
	jobDir := a.JobDir(jobID)

	rec, err := recommend.Load(filepath.Join(jobDir, recommendationFile))
	if err != nil {
		return nil, nil, err
	}
	p, err := plan.Load(filepath.Join(jobDir, planFile))
	if err != nil {
		return nil, nil, err
	}
	return rec, p, nil
}

// SavePlan persists an updated plan (typically after a review decision).
func (a *Agent) SavePlan(jobID string, p *plan.Plan) error {
	return p.Save(filepath.Join(a.JobDir(jobID), planFile))
}

// RunOutput collects everything a completed Run produced.
type RunOutput struct {
	Preflight preflight.Result
	Backup    *backup.Info
	Result    *executor.Result
	Report    *report.Report
	PR        *report.PullRequest
}

// Preflight runs only the preflight gate for a job and persists its
// artifact, leaving the repository untouched. Used by dry runs.
func (a *Agent) Preflight(ctx context.Context, jobID string, skipTests bool) (preflight.Result, error) {
	rec, _, err := a.LoadJob(jobID)
	if err != nil {
		return preflight.Result{}, err
	}

	logger := a.newJobLogger(jobID)
	defer logger.Close()
	jobLog := logger.WithJob(jobID)

	ciRunner := ci.NewCommandRunner(a.repoDir,
		a.cfg.CI.TestCommand, a.cfg.CI.LintCommand, a.cfg.CI.TypecheckCommand,
		jobLog.WithPhase("ci"))

	gate := preflight.New(a.git, ciRunner, a.cfg.Safety, skipTests, jobLog.WithPhase("preflight"))
	result := gate.Run(ctx, rec)
	if err := writeJSON(filepath.Join(a.JobDir(jobID), preflightFile), result); err != nil {
		return result, err
	}
	return result, nil
}

// Run executes an approved job: preflight, backup, supervised execution,
// report, and optionally the review pull request. skipTests disables the
// preflight test check only; the final verification still honors the
// configured safety limits.
func (a *Agent) Run(ctx context.Context, jobID string, skipTests bool) (*RunOutput, error) {
	rec, p, err := a.LoadJob(jobID)
	if err != nil {
		return nil, err
	}
	if problems := p.ValidateForExecution(); len(problems) > 0 {
		return nil, errors.Wrapf(errors.ErrPlanNotApproved, "plan %s: %v", p.ID, problems)
	}

	// Runs mutate the working tree and the backup branch, so at most one
	// may be active per jobs directory.
	lock, err := joblock.Acquire(a.jobsDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	jobDir := a.JobDir(jobID)
	logger := a.newJobLogger(jobID)
	defer logger.Close()
	jobLog := logger.WithJob(jobID)

	ciRunner := ci.NewCommandRunner(a.repoDir,
		a.cfg.CI.TestCommand, a.cfg.CI.LintCommand, a.cfg.CI.TypecheckCommand,
		jobLog.WithPhase("ci"))

	out := &RunOutput{}

	gate := preflight.New(a.git, ciRunner, a.cfg.Safety, skipTests, jobLog.WithPhase("preflight"))
	out.Preflight = gate.Run(ctx, rec)
	if err := writeJSON(filepath.Join(jobDir, preflightFile), out.Preflight); err != nil {
		return out, err
	}
	if !out.Preflight.AllPassed {
		return out, errors.Wrap(errors.ErrOperationFailed, "preflight checks failed")
	}

	backups := backup.NewManager(a.git, jobLog.WithPhase("backup"),
		a.cfg.Backup.BranchPrefix, a.cfg.Backup.PushOnCreate)
	info, err := backups.CreateBackup(jobID, rec)
	if err != nil {
		return out, err
	}
	out.Backup = info
	if err := writeJSON(filepath.Join(jobDir, backupFile), info); err != nil {
		return out, err
	}

	exec := executor.New(p, a.cfg.Safety, backups, info, ciRunner, a.repoDir,
		jobLog.WithPhase("executor")).
		WithStepTimeout(a.cfg.Executor.StepTimeout())
	out.Result = exec.Run(ctx)

	// The Pushed flag may have changed during execution, and the PR step
	// below can change it again. Persist backup info alongside the result
	// on every exit path.
	if err := writeJSON(filepath.Join(jobDir, resultFile), out.Result); err != nil {
		return out, err
	}
	if err := writeJSON(filepath.Join(jobDir, backupFile), info); err != nil {
		return out, err
	}

	reporter := report.NewReporter(backups, jobLog.WithPhase("report"))
	rep, err := reporter.GenerateReport(jobID, rec, p, out.Result, info)
	if err != nil {
		return out, err
	}
	out.Report = rep
	if err := writeJSON(filepath.Join(jobDir, reportFile), rep); err != nil {
		return out, err
	}

	if out.Result.Outcome != executor.OutcomeCompleted {
		jobLog.Warn("job did not complete, skipping pull request",
			"outcome", string(out.Result.Outcome))
		return out, nil
	}

	creator := report.NewPRCreator(a.git, a.prHost, a.cfg.PR.Enabled,
		jobLog.WithPhase("pr")).
		WithBase(a.cfg.PR.Base).
		WithExtraLabels(a.cfg.PR.Labels)
	pr, err := creator.CreatePullRequest(ctx, rep, info)
	if err != nil {
		return out, err
	}
	out.PR = pr
	if pr != nil {
		if err := writeJSON(filepath.Join(jobDir, prFile), pr); err != nil {
			return out, err
		}
		if err := writeJSON(filepath.Join(jobDir, backupFile), info); err != nil {
			return out, err
		}
	}

	return out, nil
}

// Rollback hard-resets the job's backup branch to its anchor commit.
// Safe to call repeatedly.
func (a *Agent) Rollback(jobID string) (*backup.Info, error) {
	info, err := a.loadBackupInfo(jobID)
	if err != nil {
		return nil, err
	}

	logger := a.newJobLogger(jobID)
	defer logger.Close()

	backups := backup.NewManager(a.git, logger.WithJob(jobID),
		a.cfg.Backup.BranchPrefix, a.cfg.Backup.PushOnCreate)
	if err := backups.RollbackToBackup(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Cleanup deletes the job's backup branch after its PR has been merged
// or abandoned, locally and on the remote when it was pushed.
func (a *Agent) Cleanup(jobID string) (*backup.Info, error) {
	info, err := a.loadBackupInfo(jobID)
	if err != nil {
		return nil, err
	}

	logger := a.newJobLogger(jobID)
	defer logger.Close()

	backups := backup.NewManager(a.git, logger.WithJob(jobID),
		a.cfg.Backup.BranchPrefix, a.cfg.Backup.PushOnCreate)
	if err := backups.CleanupBackupBranch(info); err != nil {
		return nil, err
	}
	return info, nil
}

func (a *Agent) loadBackupInfo(jobID string) (*backup.Info, error) {
	var info backup.Info
	if err := readJSON(filepath.Join(a.JobDir(jobID), backupFile), &info); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrBackupMissing, jobID)
		}
		return nil, err
	}
	return &info, nil
}
