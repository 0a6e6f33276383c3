// Package safety defines the safety policy a migration job runs under:
// hard limits, forbidden-path and forbidden-operation matching, plan
// validation, point-in-time safety checks, and stop-condition evaluation.
//
// Everything in this package is a pure function over its inputs. The
// policy is consulted twice on every code path that mutates the working
// tree: once when a plan is validated for approval, and again per step at
// execution time. The duplication is deliberate; an approved plan can be
// stale relative to policy changes.
package safety

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ambradan/techscout/internal/safety/pathmatch"
)

// Step is the policy's view of a single plan step: the fields the safety
// checks need, decoupled from the planner's richer step type.
type Step struct {
	Number        int
	Action        string
	Command       string
	AffectedPaths []string
}

// Violation describes a single safety rule broken by a plan or step.
type Violation struct {
	Step    int    `json:"step"` // 0 for plan-level violations
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationResult aggregates all violations found in a plan.
// A plan is valid iff it has zero violations.
type ValidationResult struct {
	IsValid    bool        `json:"isValid"`
	Violations []Violation `json:"violations"`
}

// IsPathForbidden reports whether path matches any of the given
// forbidden-path patterns. Matching is invariant to path-separator style
// and character case.
func IsPathForbidden(path string, patterns []string) bool {
	_, ok := pathmatch.MatchAny(path, patterns)
	return ok
}

// ContainsForbiddenOperation returns the first forbidden operation found
// in command as a case-insensitive substring, or "" and false if the
// command is clean.
func ContainsForbiddenOperation(command string, operations []string) (string, bool) {
	lower := strings.ToLower(command)
	for _, op := range operations {
		if op == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(op)) {
			return op, true
		}
	}
	return "", false
}

// ValidateStep checks a single step against the forbidden-path and
// forbidden-operation rules, returning every violation found.
func ValidateStep(step Step, limits Limits) []Violation {
	var violations []Violation

	for _, path := range step.AffectedPaths {
		if pattern, ok := pathmatch.MatchAny(path, limits.ForbiddenPaths); ok {
			violations = append(violations, Violation{
				Step:    step.Number,
				Rule:    "forbidden_path",
				Message: fmt.Sprintf("step %d touches forbidden path %q (pattern %q)", step.Number, path, pattern),
			})
		}
	}

	if op, ok := ContainsForbiddenOperation(step.Command, limits.ForbiddenOperations); ok {
		violations = append(violations, Violation{
			Step:    step.Number,
			Rule:    "forbidden_operation",
			Message: fmt.Sprintf("step %d command contains forbidden operation %q", step.Number, op),
		})
	}

	return violations
}

// ValidatePlan checks every step plus the plan-level scope estimates
// against the limits, aggregating all violations into a single result.
// It never short-circuits: the result lists everything wrong with the
// plan so a reviewer sees the full picture at once.
func ValidatePlan(steps []Step, estimatedFiles, estimatedLines int, limits Limits) ValidationResult {
	var violations []Violation

	for _, step := range steps {
		violations = append(violations, ValidateStep(step, limits)...)
	}

	if estimatedFiles > limits.MaxFilesModified {
		violations = append(violations, Violation{
			Rule:    "files_limit",
			Message: fmt.Sprintf("estimated %d files exceeds limit of %d", estimatedFiles, limits.MaxFilesModified),
		})
	}
	if estimatedLines > limits.MaxLinesChanged {
		violations = append(violations, Violation{
			Rule:    "lines_limit",
			Message: fmt.Sprintf("estimated %d lines exceeds limit of %d", estimatedLines, limits.MaxLinesChanged),
		})
	}

	return ValidationResult{
		IsValid:    len(violations) == 0,
		Violations: violations,
	}
}

// Check is a point-in-time snapshot comparing observed scope against the
// configured limits. It is derived data, only ever persisted as part of
// an execution result.
type Check struct {
	FilesModified         int      `json:"filesModified"`
	LinesChanged          int      `json:"linesChanged"`
	ForbiddenPathsTouched []string `json:"forbiddenPathsTouched,omitempty"`
	ForbiddenOpsAttempted []string `json:"forbiddenOpsAttempted,omitempty"`
	EstimatedComplexity   int      `json:"estimatedComplexity"`
	ActualComplexity      int      `json:"actualComplexity"`
	ComplexityRatio       float64  `json:"complexityRatio"`
	WithinFilesLimit      bool     `json:"withinFilesLimit"`
	WithinLinesLimit      bool     `json:"withinLinesLimit"`
	WithinComplexity      bool     `json:"withinComplexity"`
}

// PerformCheck computes a safety check from observed execution state.
// The complexity ratio is actual over estimated, defaulting to 1.0 when
// the estimate is zero.
func PerformCheck(filesModified, linesChanged int, forbiddenPathsTouched, forbiddenOpsAttempted []string, estimatedComplexity, actualComplexity int, limits Limits) Check {
	ratio := 1.0
	if estimatedComplexity > 0 {
		ratio = float64(actualComplexity) / float64(estimatedComplexity)
	}

	return Check{
		FilesModified:         filesModified,
		LinesChanged:          linesChanged,
		ForbiddenPathsTouched: forbiddenPathsTouched,
		ForbiddenOpsAttempted: forbiddenOpsAttempted,
		EstimatedComplexity:   estimatedComplexity,
		ActualComplexity:      actualComplexity,
		ComplexityRatio:       ratio,
		WithinFilesLimit:      filesModified <= limits.MaxFilesModified,
		WithinLinesLimit:      linesChanged <= limits.MaxLinesChanged,
		WithinComplexity:      ratio <= limits.ComplexityThreshold,
	}
}

// ShouldTriggerStop evaluates the stop conditions against a check in
// fixed priority order: files limit, lines limit, forbidden path,
// forbidden operation, complexity ratio, then test failure. It returns
// the first matched reason, or "" and false if all conditions pass.
func ShouldTriggerStop(check Check, testsPassed bool, limits Limits) (StopReason, bool) {
	if !check.WithinFilesLimit {
		return ReasonFilesExceeded, true
	}
	if !check.WithinLinesLimit {
		return ReasonLinesExceeded, true
	}
	if len(check.ForbiddenPathsTouched) > 0 {
		return ReasonForbiddenPath, true
	}
	if len(check.ForbiddenOpsAttempted) > 0 {
		return ReasonForbiddenOperation, true
	}
	if !check.WithinComplexity {
		return ReasonComplexityExceeded, true
	}
	if limits.RequireTestsPass && !testsPassed {
		return ReasonTestsFailed, true
	}
	return "", false
}

// protectedBranches is the fixed set of branch names the agent must never
// check out or mutate.
var protectedBranches = map[string]struct{}{
	"main":       {},
	"master":     {},
	"production": {},
	"prod":       {},
	"release":    {},
}

// IsProtectedBranch reports whether name is a protected branch.
// Matching is case-insensitive.
func IsProtectedBranch(name string) bool {
	_, ok := protectedBranches[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// maxSubjectSlug limits the subject portion of a generated branch name.
const maxSubjectSlug = 30

// GenerateSafeBranchName builds a unique, git-legal branch name for a
// migration job. The subject is reduced to lower-case alphanumerics and
// hyphens and truncated; a short fragment of the recommendation ID and a
// time-based suffix guarantee uniqueness.
// Example: "techscout/migrate-left-pad-removal-rec42-1712345678".
func GenerateSafeBranchName(prefix, recommendationID, subject string) string {
	slug := slugify(subject)
	if slug == "" {
		slug = "migration"
	}

	idFragment := slugify(recommendationID)
	if len(idFragment) > 8 {
		idFragment = idFragment[:8]
	}
	if idFragment == "" {
		idFragment = "noid"
	}

	return fmt.Sprintf("%s/migrate-%s-%s-%d", prefix, slug, idFragment, time.Now().Unix())
}

// slugify converts text to lower-case alphanumerics and hyphens, suitable
// for branch names. Runs of other characters collapse into single hyphens.
func slugify(text string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}

	s := b.String()
	// Truncate on a rune boundary; slugs may contain multibyte letters.
	if runes := []rune(s); len(runes) > maxSubjectSlug {
		s = string(runes[:maxSubjectSlug])
	}
	return strings.Trim(s, "-")
}
