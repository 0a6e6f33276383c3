package plan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/safety"
)

// estimatedLinesPerFile is the fixed per-file constant used for the
// plan-level lines estimate.
const estimatedLinesPerFile = 50

// mediumRiskFileCount is the affected-file count past which a step is at
// least medium risk.
const mediumRiskFileCount = 5

// Planner turns a recommendation's raw step descriptions into a
// structured MigrationPlan. Step descriptions are treated as opaque text
// to classify and wrap; the planner never authors step content itself.
type Planner struct {
	limits safety.Limits
	logger *logging.Logger
}

// NewPlanner creates a planner operating under the given safety limits.
func NewPlanner(limits safety.Limits, logger *logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Planner{limits: limits, logger: logger}
}

// GeneratePlan builds a pending plan from a recommendation. For each raw
// step it estimates affected files, synthesizes a command, and classifies
// risk; it then appends the mandatory test-verification step (and a lint
// step when the policy requires lint to pass), aggregates the scope
// estimate, and runs whole-plan safety validation.
func (pl *Planner) GeneratePlan(jobID string, rec *recommend.Recommendation) (*Plan, error) {
	if len(rec.Steps) == 0 {
		return nil, errors.NewPlanError("recommendation has no raw steps", errors.ErrNoSteps).
			WithPlanID(jobID)
	}

	var steps []Step
	for i, raw := range rec.Steps {
		step := Step{
			Number:        i + 1,
			Action:        raw,
			Command:       synthesizeCommand(raw, rec),
			AffectedPaths: estimateAffectedFiles(raw, rec),
		}
		step.Risk = classifyRisk(step)
		step.ExpectedOutcome = expectedOutcome(step)
		steps = append(steps, step)
	}

	steps = append(steps, Step{
		Number:          len(steps) + 1,
		Action:          "Verify the full test suite passes after the migration",
		Command:         "npm test",
		AffectedPaths:   []string{"tests/**"},
		Risk:            RiskLow,
		ExpectedOutcome: "All tests pass with no new failures",
	})

	if pl.limits.RequireLintPass {
		steps = append(steps, Step{
			Number:          len(steps) + 1,
			Action:          "Verify lint passes after the migration",
			Command:         "npm run lint",
			Risk:            RiskLow,
			ExpectedOutcome: "Linter reports no new issues",
		})
	}

	estimatedFiles := countDistinctPaths(steps)
	if estimatedFiles < len(steps) {
		estimatedFiles = len(steps)
	}
	estimatedLines := estimatedFiles * estimatedLinesPerFile

	p := &Plan{
		ID:               jobID,
		RecommendationID: rec.ID,
		Subject:          rec.Subject,
		Action:           rec.Action,
		Steps:            steps,
		EstimatedFiles:   estimatedFiles,
		EstimatedLines:   estimatedLines,
		Status:           StatusPending,
		CreatedAt:        time.Now(),
	}

	result := safety.ValidatePlan(p.SafetySteps(), estimatedFiles, estimatedLines, pl.limits)
	p.WithinSafetyLimits = result.IsValid
	p.Violations = result.Violations

	pl.logger.Info("plan generated",
		"plan_id", p.ID,
		"steps", len(p.Steps),
		"estimated_files", estimatedFiles,
		"estimated_lines", estimatedLines,
		"within_limits", p.WithinSafetyLimits)
	return p, nil
}

// pathToken matches path-like tokens in step text: anything with a
// directory separator, a file extension, or a leading-dot name like
// .env. The dotfile alternative requires a letter after the dot so
// version strings like 1.3.0 do not produce tokens.
var pathToken = regexp.MustCompile(`[\w@][\w@./-]*/[\w@./-]+|[\w-]+\.[a-z]{1,4}\b|\.[a-zA-Z](?:[\w.-]*\w)?`)

// testMention detects steps that talk about tests.
var testMention = regexp.MustCompile(`(?i)\btests?\b|\bspecs?\b`)

// estimateAffectedFiles extracts path-like tokens from the step text and
// adds action-specific heuristics: replace and upgrade actions touch the
// package manifest, and test-related steps touch the test tree.
func estimateAffectedFiles(raw string, rec *recommend.Recommendation) []string {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	for _, token := range pathToken.FindAllString(raw, -1) {
		add(token)
	}

	switch rec.Action {
	case recommend.ActionReplace, recommend.ActionAdopt, recommend.ActionUpgrade, recommend.ActionRemove:
		add("package.json")
	}

	if testMention.MatchString(raw) {
		add("tests/**")
	}

	return paths
}

// Command synthesis templates, matched by keyword. Anything unmatched
// becomes a comment-only placeholder meaning "requires manual execution".
var commandTemplates = []struct {
	pattern *regexp.Regexp
	command func(rec *recommend.Recommendation) string
}{
	{regexp.MustCompile(`(?i)\b(uninstall|remove)\b`), func(rec *recommend.Recommendation) string {
		return fmt.Sprintf("npm uninstall %s", npmName(rec.Subject))
	}},
	{regexp.MustCompile(`(?i)\b(install|add)\b`), func(rec *recommend.Recommendation) string {
		return fmt.Sprintf("npm install %s", npmName(rec.Subject))
	}},
	{regexp.MustCompile(`(?i)\b(upgrade|update|bump)\b`), func(rec *recommend.Recommendation) string {
		return fmt.Sprintf("npm update %s", npmName(rec.Subject))
	}},
	{regexp.MustCompile(`(?i)\b(test|verify)\b`), func(rec *recommend.Recommendation) string {
		return "npm test"
	}},
	{regexp.MustCompile(`(?i)\b(build|compile)\b`), func(rec *recommend.Recommendation) string {
		return "npm run build"
	}},
}

// synthesizeCommand matches the raw step text against the command
// templates, falling back to a comment-only placeholder.
func synthesizeCommand(raw string, rec *recommend.Recommendation) string {
	for _, tmpl := range commandTemplates {
		if tmpl.pattern.MatchString(raw) {
			return tmpl.command(rec)
		}
	}
	return fmt.Sprintf("# manual: %s", raw)
}

// npmName reduces a subject to a safe npm package token.
func npmName(subject string) string {
	name := strings.TrimSpace(strings.ToLower(subject))
	name = strings.ReplaceAll(name, " ", "-")
	return name
}

// Risk classification patterns over the combined action and command text.
var (
	highRiskPattern   = regexp.MustCompile(`(?i)\b(delete|drop|breaking|migrat\w*|database|schema|config\w*|secret\w*|credential\w*)\b`)
	mediumRiskPattern = regexp.MustCompile(`(?i)\b(modify|refactor|replace|rewrite|rename)\b`)
)

// classifyRisk labels a step high, medium, or low. High wins over medium;
// a wide blast radius alone is enough for medium.
func classifyRisk(step Step) RiskLevel {
	text := step.Action + " " + step.Command
	if highRiskPattern.MatchString(text) {
		return RiskHigh
	}
	if mediumRiskPattern.MatchString(text) {
		return RiskMedium
	}
	if len(step.AffectedPaths) > mediumRiskFileCount {
		return RiskMedium
	}
	return RiskLow
}

// expectedOutcome synthesizes a short outcome description for a step.
func expectedOutcome(step Step) string {
	if step.IsManual() {
		return "Requires manual execution; treated as completed with a manual-intervention note"
	}
	return fmt.Sprintf("Command %q completes successfully", step.Command)
}

// countDistinctPaths counts the distinct affected paths across all steps.
func countDistinctPaths(steps []Step) int {
	seen := make(map[string]struct{})
	for _, step := range steps {
		for _, p := range step.AffectedPaths {
			seen[p] = struct{}{}
		}
	}
	return len(seen)
}
