// Package preflight gates a migration job before any mutation happens.
// It runs five independent checks and reports each one individually,
// never short-circuiting, so a failed job shows everything wrong at
// once. Preflight has no side effects; a failure simply blocks
// progression to the backup phase.
package preflight

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ambradan/techscout/internal/ci"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/safety"
	"github.com/ambradan/techscout/internal/safety/pathmatch"
)

// estimatedFilesPerStep is the heuristic multiplier used for the scope
// check before a plan exists.
const estimatedFilesPerStep = 3

// CheckStatus is the outcome of a single preflight check.
type CheckStatus string

const (
	// CheckPassed means the check succeeded.
	CheckPassed CheckStatus = "passed"
	// CheckFailed means the check found a blocking problem.
	CheckFailed CheckStatus = "failed"
	// CheckSkipped means configuration disabled the check.
	CheckSkipped CheckStatus = "skipped"
)

// CheckResult is one named preflight check with its outcome and detail.
type CheckResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Result aggregates all preflight checks. AllPassed is true iff every
// check passed or was explicitly skipped.
type Result struct {
	Checks    []CheckResult `json:"checks"`
	AllPassed bool          `json:"allPassed"`
}

// Preflight runs the pre-mutation gate for a job.
type Preflight struct {
	git       gitops.VersionControl
	ciRunner  ci.Runner
	limits    safety.Limits
	skipTests bool
	logger    *logging.Logger
}

// New creates a preflight gate. skipTests disables the test-suite check
// (reported as skipped, not passed).
func New(git gitops.VersionControl, ciRunner ci.Runner, limits safety.Limits, skipTests bool, logger *logging.Logger) *Preflight {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Preflight{
		git:       git,
		ciRunner:  ciRunner,
		limits:    limits,
		skipTests: skipTests,
		logger:    logger,
	}
}

// Run executes all five checks in order and returns the aggregate
// result. Checks never short-circuit each other.
func (p *Preflight) Run(ctx context.Context, rec *recommend.Recommendation) Result {
	checks := []CheckResult{
		p.checkCleanTree(),
		p.checkTests(ctx),
		p.checkRecommendation(rec),
		p.checkScope(rec),
		p.checkForbiddenReferences(rec),
	}

	allPassed := true
	for _, c := range checks {
		if c.Status == CheckFailed {
			allPassed = false
		}
		p.logger.Info("preflight check", "name", c.Name, "status", string(c.Status), "detail", c.Detail)
	}

	return Result{Checks: checks, AllPassed: allPassed}
}

// checkCleanTree verifies the working tree has no uncommitted changes.
func (p *Preflight) checkCleanTree() CheckResult {
	result := CheckResult{Name: "clean_working_tree"}

	clean, err := p.git.IsClean()
	switch {
	case err != nil:
		result.Status = CheckFailed
		result.Detail = err.Error()
	case !clean:
		result.Status = CheckFailed
		result.Detail = "working tree has uncommitted changes"
	default:
		result.Status = CheckPassed
	}
	return result
}

// checkTests verifies the test suite is green before anything changes.
func (p *Preflight) checkTests(ctx context.Context) CheckResult {
	result := CheckResult{Name: "tests_green"}

	if p.skipTests || !p.limits.RequireTestsPass {
		result.Status = CheckSkipped
		result.Detail = "test check disabled by configuration"
		return result
	}

	testResult, err := p.ciRunner.RunTests(ctx)
	switch {
	case err != nil:
		result.Status = CheckFailed
		result.Detail = err.Error()
	case !testResult.Passed:
		result.Status = CheckFailed
		result.Detail = fmt.Sprintf("test suite failing before migration (%d failed)", testResult.FailedCount)
	default:
		result.Status = CheckPassed
	}
	return result
}

// checkRecommendation verifies the recommendation is structurally valid
// and not deferred.
func (p *Preflight) checkRecommendation(rec *recommend.Recommendation) CheckResult {
	result := CheckResult{Name: "recommendation_valid"}

	if err := rec.Validate(); err != nil {
		result.Status = CheckFailed
		result.Detail = err.Error()
		return result
	}
	if rec.Verdict == recommend.VerdictDefer {
		result.Status = CheckFailed
		result.Detail = "recommendation verdict is DEFER"
		return result
	}

	result.Status = CheckPassed
	return result
}

// pathToken matches path-like tokens in free-form step text: anything
// with a directory separator, a file extension, or a leading-dot name
// like .env. The dotfile alternative requires a letter after the dot so
// version strings like 1.3.0 do not produce tokens.
var pathToken = regexp.MustCompile(`[\w@][\w@./-]*/[\w@./-]+|[\w.-]+\.[a-z]{1,4}\b|\.[a-zA-Z](?:[\w.-]*\w)?`)

func pathTokens(step string) []string {
	return pathToken.FindAllString(step, -1)
}

// checkScope estimates the migration's blast radius from the raw step
// count and verifies it fits the configured limits.
func (p *Preflight) checkScope(rec *recommend.Recommendation) CheckResult {
	result := CheckResult{Name: "scope_within_limits"}

	estimatedFiles := len(rec.Steps) * estimatedFilesPerStep
	if estimatedFiles > p.limits.MaxFilesModified {
		result.Status = CheckFailed
		result.Detail = fmt.Sprintf("estimated %d files from %d steps exceeds limit of %d",
			estimatedFiles, len(rec.Steps), p.limits.MaxFilesModified)
		return result
	}

	result.Status = CheckPassed
	result.Detail = fmt.Sprintf("estimated %d files within limit of %d", estimatedFiles, p.limits.MaxFilesModified)
	return result
}

// checkForbiddenReferences scans the raw step descriptions for textual
// references to forbidden paths.
func (p *Preflight) checkForbiddenReferences(rec *recommend.Recommendation) CheckResult {
	result := CheckResult{Name: "no_forbidden_paths"}

	for i, step := range rec.Steps {
		for _, token := range pathTokens(step) {
			if pattern, ok := pathmatch.MatchAny(token, p.limits.ForbiddenPaths); ok {
				result.Status = CheckFailed
				result.Detail = fmt.Sprintf("step %d references forbidden path %q (pattern %q)", i+1, token, pattern)
				return result
			}
		}
	}

	result.Status = CheckPassed
	return result
}
