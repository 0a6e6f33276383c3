// Package recommend defines the Recommendation input consumed by the
// migration agent. Recommendations are produced upstream by the scouting
// pipeline; the agent treats them as immutable once read.
package recommend

import (
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ambradan/techscout/internal/errors"
)

// Verdict is the stability verdict attached to a recommendation.
type Verdict string

const (
	// VerdictRecommend approves acting on the recommendation.
	VerdictRecommend Verdict = "RECOMMEND"
	// VerdictMonitor suggests watching the subject without acting yet.
	VerdictMonitor Verdict = "MONITOR"
	// VerdictDefer blocks any migration for this subject.
	VerdictDefer Verdict = "DEFER"
)

// Action identifies the kind of change a recommendation proposes.
type Action string

const (
	// ActionAdopt introduces a new dependency.
	ActionAdopt Action = "adopt_new"
	// ActionReplace swaps an existing dependency for the subject.
	ActionReplace Action = "replace_existing"
	// ActionUpgrade moves an existing dependency to a newer version.
	ActionUpgrade Action = "upgrade_version"
	// ActionRemove drops a dependency entirely.
	ActionRemove Action = "remove_dependency"
)

// Recommendation is a structured change recommendation: the agent's sole
// input. Only recommendations with a non-DEFER verdict may enter the
// migration pipeline.
type Recommendation struct {
	ID             string   `json:"id"`
	Action         Action   `json:"action"`
	Priority       string   `json:"priority"`
	Confidence     float64  `json:"confidence"`
	Subject        string   `json:"subject"`
	Steps          []string `json:"steps"`
	EffortEstimate string   `json:"effortEstimate"`
	Verdict        Verdict  `json:"verdict"`
}

// Validate checks that every required field is present and well-formed.
// It does not consider the verdict; deferral is a preflight concern, not
// a structural one. Priority and EffortEstimate are optional: priority is
// informational only, and a missing effort estimate is reported downstream
// as "not applicable" rather than rejected here.
func (r *Recommendation) Validate() error {
	if r.ID == "" {
		return errors.NewValidationError("recommendation has no id").WithField("id")
	}
	if r.Subject == "" {
		return errors.NewValidationError("recommendation has no subject").WithField("subject")
	}
	if r.Action == "" {
		return errors.NewValidationError("recommendation has no action").WithField("action")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.NewValidationError("confidence must be between 0 and 1").
			WithField("confidence").WithValue(r.Confidence)
	}
	if len(r.Steps) == 0 {
		return errors.NewValidationError("recommendation has no migration steps").
			WithField("steps").WithCause(errors.ErrNoSteps)
	}
	if r.Verdict == "" {
		return errors.NewValidationError("recommendation has no verdict").WithField("verdict")
	}
	return nil
}

// Load reads a Recommendation from a JSON file.
func Load(path string) (*Recommendation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recommendation %s", path)
	}

	var rec Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.NewValidationError("recommendation is not valid JSON").WithCause(err)
	}
	return &rec, nil
}

// effortPattern matches estimates like "5 days", "1.5 weeks", or "2d".
var effortPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(d|day|days|w|week|weeks|h|hour|hours)\b`)

// ParseEffortDays converts a free-form effort estimate into days.
// Weeks count as five working days, hours as an eighth of a day.
// Unparseable estimates return 0, which downstream reporting renders as
// "not applicable" rather than a zero-day migration.
func ParseEffortDays(estimate string) float64 {
	m := effortPattern.FindStringSubmatch(strings.TrimSpace(estimate))
	if m == nil {
		return 0
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2])[0] {
	case 'w':
		return value * 5
	case 'h':
		return value / 8
	default:
		return value
	}
}
