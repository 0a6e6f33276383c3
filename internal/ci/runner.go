// Package ci provides the CI collaborator for migration jobs: running the
// project's test suite, linter, and type checker as synchronous
// subprocesses with fixed per-call timeouts, and parsing pass/fail counts
// out of their free-form output.
package ci

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/logging"
)

// Result is the outcome of a single CI tool invocation. A non-zero exit
// status is a failed result, not an error; errors are reserved for the
// tool being unrunnable or timing out.
type Result struct {
	Passed      bool          `json:"passed"`
	Output      string        `json:"output"`
	Duration    time.Duration `json:"duration"`
	PassedCount int           `json:"passedCount"`
	FailedCount int           `json:"failedCount"`
}

// Runner is the CI collaborator interface. The production implementation
// shells out to configured commands; tests substitute stubs.
type Runner interface {
	RunTests(ctx context.Context) (Result, error)
	RunLint(ctx context.Context) (Result, error)
	RunTypecheck(ctx context.Context) (Result, error)
}

// Default per-call timeouts. The plan-level budget is checked separately
// at step boundaries.
const (
	DefaultTestTimeout = 10 * time.Minute
	DefaultToolTimeout = 5 * time.Minute
)

// CommandRunner implements Runner by running configured shell commands in
// the repository directory.
type CommandRunner struct {
	dir         string
	testCommand string
	lintCommand string
	typeCommand string
	testTimeout time.Duration
	toolTimeout time.Duration
	logger      *logging.Logger
}

// Compile-time check that CommandRunner implements Runner.
var _ Runner = (*CommandRunner)(nil)

// NewCommandRunner creates a CommandRunner for the given repository
// directory. Empty commands make the corresponding run a skipped pass.
func NewCommandRunner(dir, testCommand, lintCommand, typeCommand string, logger *logging.Logger) *CommandRunner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandRunner{
		dir:         dir,
		testCommand: testCommand,
		lintCommand: lintCommand,
		typeCommand: typeCommand,
		testTimeout: DefaultTestTimeout,
		toolTimeout: DefaultToolTimeout,
		logger:      logger,
	}
}

// WithTimeouts overrides the default per-call timeouts.
func (r *CommandRunner) WithTimeouts(test, tool time.Duration) *CommandRunner {
	r.testTimeout = test
	r.toolTimeout = tool
	return r
}

// RunTests runs the configured test command.
func (r *CommandRunner) RunTests(ctx context.Context) (Result, error) {
	return r.run(ctx, "tests", r.testCommand, r.testTimeout)
}

// RunLint runs the configured lint command.
func (r *CommandRunner) RunLint(ctx context.Context) (Result, error) {
	return r.run(ctx, "lint", r.lintCommand, r.toolTimeout)
}

// RunTypecheck runs the configured type-check command.
func (r *CommandRunner) RunTypecheck(ctx context.Context) (Result, error) {
	return r.run(ctx, "typecheck", r.typeCommand, r.toolTimeout)
}

// run executes a shell command with a timeout and parses its output.
func (r *CommandRunner) run(parentCtx context.Context, kind, command string, timeout time.Duration) (Result, error) {
	if strings.TrimSpace(command) == "" {
		r.logger.Debug("no command configured, treating as pass", "kind", kind)
		return Result{Passed: true}, nil
	}

	ctx, cancel := context.WithTimeout(parentCtx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.dir
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return Result{Output: string(output), Duration: duration},
			errors.NewTimeoutError(kind, timeout)
	}

	result := Result{
		Passed:   err == nil,
		Output:   string(output),
		Duration: duration,
	}
	result.PassedCount, result.FailedCount = parseCounts(string(output))

	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// The tool could not be started at all.
			return result, errors.Wrapf(err, "failed to run %s command", kind)
		}
	}

	r.logger.Info("ci run finished",
		"kind", kind, "passed", result.Passed,
		"passed_count", result.PassedCount, "failed_count", result.FailedCount,
		"duration", duration.String())
	return result, nil
}

// Count patterns cover the common test-runner phrasings:
// "12 passing", "3 failed", "Tests: 10 passed, 2 failed".
var (
	passPattern = regexp.MustCompile(`(?i)(\d+)\s+pass(?:ed|ing)?\b`)
	failPattern = regexp.MustCompile(`(?i)(\d+)\s+fail(?:ed|ing|ures?)?\b`)
)

// parseCounts extracts passed/failed counts from free-form tool output.
// Unrecognized output yields zeros.
func parseCounts(output string) (passed, failed int) {
	if m := passPattern.FindStringSubmatch(output); m != nil {
		passed, _ = strconv.Atoi(m[1])
	}
	if m := failPattern.FindStringSubmatch(output); m != nil {
		failed, _ = strconv.Atoi(m[1])
	}
	return passed, failed
}
