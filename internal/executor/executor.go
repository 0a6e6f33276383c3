// Package executor drives an approved migration plan to completion under
// timeout, ambiguity, and safety supervision.
//
// A run is strictly sequential: one step at a time, because steps mutate
// a shared working tree. Timeout detection is cooperative, checked only
// at step boundaries; an overrunning subprocess is not preemptively
// killed beyond its own per-step timeout. Every exit path, normal or
// not, attempts a commit to the backup branch first so the working tree
// is never left uncommitted.
package executor

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ambradan/techscout/internal/backup"
	"github.com/ambradan/techscout/internal/ci"
	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/safety"
	"github.com/ambradan/techscout/internal/util"
)

// DefaultStepTimeout is the fixed per-step subprocess timeout.
const DefaultStepTimeout = 5 * time.Minute

// StepRunner executes a single step command and returns its combined
// output. The production implementation shells out; tests substitute
// scripted runners.
type StepRunner interface {
	Run(ctx context.Context, dir, command string) (string, error)
}

// ShellStepRunner runs step commands through the shell.
type ShellStepRunner struct{}

// Run executes command via "sh -c" in dir, honoring ctx cancellation.
func (ShellStepRunner) Run(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Executor runs one approved plan against one backup branch. It is
// single-use: construct per job, call Run once.
type Executor struct {
	plan        *plan.Plan
	limits      safety.Limits
	backups     *backup.Manager
	info        *backup.Info
	runner      StepRunner
	ciRunner    ci.Runner
	logger      *logging.Logger
	repoDir     string
	stepTimeout time.Duration
}

// New creates an executor for the given approved plan and backup branch.
func New(p *plan.Plan, limits safety.Limits, backups *backup.Manager, info *backup.Info, ciRunner ci.Runner, repoDir string, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Executor{
		plan:        p,
		limits:      limits,
		backups:     backups,
		info:        info,
		runner:      ShellStepRunner{},
		ciRunner:    ciRunner,
		logger:      logger,
		repoDir:     repoDir,
		stepTimeout: DefaultStepTimeout,
	}
}

// WithStepRunner substitutes the step runner. Primarily for tests.
func (e *Executor) WithStepRunner(r StepRunner) *Executor {
	e.runner = r
	return e
}

// WithStepTimeout overrides the per-step subprocess timeout.
func (e *Executor) WithStepTimeout(d time.Duration) *Executor {
	e.stepTimeout = d
	return e
}

// Run drives the plan's steps in order and returns the execution result.
// Run never returns an error: any unexpected failure is folded into an
// errored result after a best-effort partial commit, so callers always
// receive the full step record.
func (e *Executor) Run(ctx context.Context) *Result {
	result := &Result{
		Outcome:   OutcomeErrored,
		StartedAt: time.Now(),
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during execution", "panic", fmt.Sprint(r))
			e.partialCommit(fmt.Sprintf("techscout: partial work (run aborted at step %d)", len(result.Steps)))
			result.Outcome = OutcomeErrored
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.EndedAt = time.Now()
		result.Duration = result.EndedAt.Sub(result.StartedAt)
	}()

	if issues := e.plan.ValidateForExecution(); len(issues) > 0 {
		result.Error = fmt.Sprintf("plan is not executable: %v", issues)
		return result
	}

	planBudget := time.Duration(e.limits.MaxExecutionMinutes) * time.Minute
	totalSteps := len(e.plan.Steps)

	for _, step := range e.plan.Steps {
		// Timeout is cooperative: checked only between steps.
		if time.Since(result.StartedAt) >= planBudget {
			committed := e.partialCommit(fmt.Sprintf("techscout: partial work (timed out before step %d)", step.Number))
			stop := safety.NewStop(safety.ReasonTimeout, step.Number, committed)
			result.Stop = &stop
			result.Outcome = OutcomeTimedOut
			return result
		}

		// Re-validate against the live policy even though the plan was
		// validated at approval time: the approval may be stale.
		if violations := safety.ValidateStep(safety.Step{
			Number:        step.Number,
			Action:        step.Action,
			Command:       step.Command,
			AffectedPaths: step.AffectedPaths,
		}, e.limits); len(violations) > 0 {
			result.Steps = append(result.Steps, StepExecution{
				StepNumber: step.Number,
				Status:     StepFailed,
				Error:      violations[0].Message,
				Note:       "blocked by safety policy before execution",
			})
			committed := e.partialCommit(fmt.Sprintf("techscout: partial work (step %d blocked by safety policy)", step.Number))
			result.Outcome = OutcomeStepFailed
			e.logger.Error("step blocked by safety policy",
				"step", step.Number, "violation", violations[0].Message, "committed", committed)
			return result
		}

		record := e.runStep(ctx, step)
		result.Steps = append(result.Steps, record)

		result.Ambiguities = append(result.Ambiguities, scanAmbiguities(step.Number, record.Output)...)
		if ambiguityBoundExceeded(len(result.Ambiguities), totalSteps) {
			committed := e.partialCommit(fmt.Sprintf("techscout: partial work (ambiguity stop at step %d)", step.Number))
			stop := safety.NewStop(safety.ReasonAmbiguityHigh, step.Number, committed)
			result.Stop = &stop
			result.Outcome = OutcomeAmbiguityStopped
			return result
		}

		if record.Status == StepFailed {
			committed := e.partialCommit(fmt.Sprintf("techscout: partial work (step %d failed)", step.Number))
			result.Outcome = OutcomeStepFailed
			e.logger.Error("step failed, run halted",
				"step", step.Number, "error", record.Error, "committed", committed)
			return result
		}

		message := fmt.Sprintf("techscout: step %d: %s", step.Number, util.TruncateString(step.Action, 60))
		if _, err := e.backups.CommitChanges(e.info, message); err != nil {
			result.Error = err.Error()
			result.Outcome = OutcomeErrored
			e.logger.Error("post-step commit failed", "step", step.Number, "error", err)
			return result
		}
	}

	check, testsPassed, err := e.finalCheck(ctx)
	if err != nil {
		e.partialCommit("techscout: partial work (final check failed)")
		result.Error = err.Error()
		result.Outcome = OutcomeErrored
		return result
	}
	result.FinalCheck = &check

	if reason, stop := safety.ShouldTriggerStop(check, testsPassed, e.limits); stop {
		committed := e.partialCommit(fmt.Sprintf("techscout: partial work (safety stop: %s)", reason))
		s := safety.NewStop(reason, totalSteps, committed)
		result.Stop = &s
		result.Outcome = OutcomeSafetyStopped
		e.logger.Warn("final safety check triggered stop", "reason", string(reason))
		return result
	}

	result.Outcome = OutcomeCompleted
	e.logger.Info("execution completed",
		"steps", len(result.Steps), "ambiguities", len(result.Ambiguities))
	return result
}

// runStep executes a single step with the per-step timeout. Comment-only
// placeholder commands are treated as immediately completed with a
// manual-intervention note.
func (e *Executor) runStep(ctx context.Context, step plan.Step) StepExecution {
	if step.IsManual() {
		e.logger.Info("manual step acknowledged", "step", step.Number)
		return StepExecution{
			StepNumber: step.Number,
			Status:     StepCompleted,
			Note:       "requires manual execution; no command was run",
		}
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	start := time.Now()
	output, err := e.runner.Run(stepCtx, e.repoDir, step.Command)
	duration := time.Since(start)

	record := StepExecution{
		StepNumber: step.Number,
		Status:     StepCompleted,
		Duration:   duration,
		Output:     output,
	}
	if stepCtx.Err() == context.DeadlineExceeded {
		record.Status = StepFailed
		record.Error = errors.NewTimeoutError(fmt.Sprintf("step %d", step.Number), e.stepTimeout).Error()
	} else if err != nil {
		record.Status = StepFailed
		record.Error = err.Error()
	}

	e.logger.Info("step executed",
		"step", step.Number, "status", string(record.Status), "duration", duration.String())
	return record
}

// finalCheck computes the end-of-run safety check. The plan's total
// affected-files estimate serves as the complexity proxy against the
// actual files changed.
func (e *Executor) finalCheck(ctx context.Context) (safety.Check, bool, error) {
	stat, err := e.backups.GetBackupDiff(e.info)
	if err != nil {
		return safety.Check{}, false, err
	}

	changes, err := e.backups.GetBackupChanges(e.info)
	if err != nil {
		return safety.Check{}, false, err
	}

	var forbiddenTouched []string
	for _, change := range changes {
		if safety.IsPathForbidden(change.Path, e.limits.ForbiddenPaths) {
			forbiddenTouched = append(forbiddenTouched, change.Path)
		}
	}

	testsPassed := true
	if e.limits.RequireTestsPass && e.ciRunner != nil {
		testResult, err := e.ciRunner.RunTests(ctx)
		if err != nil {
			return safety.Check{}, false, err
		}
		testsPassed = testResult.Passed
	}

	check := safety.PerformCheck(
		stat.FilesChanged,
		stat.TotalLines(),
		forbiddenTouched,
		nil, // commands were screened per step
		e.plan.EstimatedFiles,
		stat.FilesChanged,
		e.limits,
	)
	return check, testsPassed, nil
}

// partialCommit attempts to commit whatever work is in the tree,
// returning whether the commit succeeded. Failure to commit is logged
// but never escalated; the caller is already on an exit path.
func (e *Executor) partialCommit(message string) bool {
	if _, err := e.backups.CommitChanges(e.info, message); err != nil {
		e.logger.Error("partial commit failed", "error", err)
		return false
	}
	return true
}
