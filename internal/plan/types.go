// Package plan defines migration plans and owns their generation and
// approval workflow. A plan is the unit a human approves: an ordered,
// risk-classified, safety-validated list of steps derived from a
// recommendation's raw step descriptions.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/safety"
)

// Status is the approval status of a migration plan.
type Status string

const (
	// StatusPending means the plan awaits a human decision.
	StatusPending Status = "pending"
	// StatusApproved means a human approved the plan for execution.
	StatusApproved Status = "approved"
	// StatusRejected means a human rejected the plan. Terminal.
	StatusRejected Status = "rejected"
	// StatusChangesRequested means a human asked for amendments.
	StatusChangesRequested Status = "changes_requested"
)

// RiskLevel classifies how dangerous a single step is.
type RiskLevel string

const (
	// RiskLow marks routine steps.
	RiskLow RiskLevel = "low"
	// RiskMedium marks steps that modify existing behavior or touch many files.
	RiskMedium RiskLevel = "medium"
	// RiskHigh marks steps matching destructive or sensitive patterns.
	RiskHigh RiskLevel = "high"
)

// Step is a single structured migration step.
type Step struct {
	Number          int       `json:"number"`
	Action          string    `json:"action"`
	Command         string    `json:"command"`
	AffectedPaths   []string  `json:"affectedPaths"`
	Risk            RiskLevel `json:"risk"`
	ExpectedOutcome string    `json:"expectedOutcome"`
}

// IsManual reports whether the step's command is a comment-only
// placeholder that requires manual execution rather than a runnable
// command.
func (s Step) IsManual() bool {
	return strings.HasPrefix(strings.TrimSpace(s.Command), "#")
}

// Decision records a human approval action on a plan.
type Decision struct {
	Actor  string    `json:"actor"`
	Time   time.Time `json:"time"`
	Reason string    `json:"reason,omitempty"`
}

// Plan is a structured, safety-validated migration plan. Status only ever
// changes through Approve, Reject, or RequestChanges, each of which
// records the acting human and a timestamp.
type Plan struct {
	ID                 string             `json:"id"`
	RecommendationID   string             `json:"recommendationId"`
	Subject            string             `json:"subject"`
	Action             recommend.Action   `json:"action"`
	Steps              []Step             `json:"steps"`
	EstimatedFiles     int                `json:"estimatedFiles"`
	EstimatedLines     int                `json:"estimatedLines"`
	WithinSafetyLimits bool               `json:"withinSafetyLimits"`
	Violations         []safety.Violation `json:"violations,omitempty"`
	Status             Status             `json:"status"`
	Decision           *Decision          `json:"decision,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// decidable reports whether the plan can still receive a decision.
func (p *Plan) decidable() bool {
	return p.Status == StatusPending || p.Status == StatusChangesRequested
}

// Approve records a human approval. Only pending or changes-requested
// plans may be approved.
func (p *Plan) Approve(actor string) error {
	if actor == "" {
		return errors.NewValidationError("approval requires an actor").WithField("actor")
	}
	if !p.decidable() {
		return errors.NewPlanError(fmt.Sprintf("cannot approve plan in status %q", p.Status), errors.ErrPlanAlreadyDecided).
			WithPlanID(p.ID)
	}

	p.Status = StatusApproved
	p.Decision = &Decision{Actor: actor, Time: time.Now()}
	return nil
}

// Reject records a human rejection with a reason. Rejection is terminal.
func (p *Plan) Reject(actor, reason string) error {
	if actor == "" {
		return errors.NewValidationError("rejection requires an actor").WithField("actor")
	}
	if !p.decidable() {
		return errors.NewPlanError(fmt.Sprintf("cannot reject plan in status %q", p.Status), errors.ErrPlanAlreadyDecided).
			WithPlanID(p.ID)
	}

	p.Status = StatusRejected
	p.Decision = &Decision{Actor: actor, Time: time.Now(), Reason: reason}
	return nil
}

// RequestChanges records a human request for amendments with a reason.
func (p *Plan) RequestChanges(actor, reason string) error {
	if actor == "" {
		return errors.NewValidationError("requesting changes requires an actor").WithField("actor")
	}
	if !p.decidable() {
		return errors.NewPlanError(fmt.Sprintf("cannot request changes on plan in status %q", p.Status), errors.ErrPlanAlreadyDecided).
			WithPlanID(p.ID)
	}

	p.Status = StatusChangesRequested
	p.Decision = &Decision{Actor: actor, Time: time.Now(), Reason: reason}
	return nil
}

// ValidateForExecution returns every issue blocking execution of the
// plan: it must be approved by a recorded actor, within safety limits,
// and non-empty. An empty slice means the plan may execute.
func (p *Plan) ValidateForExecution() []string {
	var issues []string

	if p.Status != StatusApproved {
		issues = append(issues, fmt.Sprintf("plan status is %q, not %q", p.Status, StatusApproved))
	}
	if p.Decision == nil || p.Decision.Actor == "" {
		issues = append(issues, "plan has no recorded approver")
	}
	if !p.WithinSafetyLimits {
		issues = append(issues, "plan is not within safety limits")
	}
	if len(p.Steps) == 0 {
		issues = append(issues, "plan has no steps")
	}

	return issues
}

// SafetySteps converts the plan's steps into the safety policy's view.
func (p *Plan) SafetySteps() []safety.Step {
	steps := make([]safety.Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = safety.Step{
			Number:        s.Number,
			Action:        s.Action,
			Command:       s.Command,
			AffectedPaths: s.AffectedPaths,
		}
	}
	return steps
}

// Save writes the plan as JSON to path.
func (p *Plan) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal plan")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write plan %s", path)
	}
	return nil
}

// Load reads a plan from a JSON file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewNotFoundError("plan", path).WithCause(err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.NewValidationError("plan is not valid JSON").WithCause(err)
	}
	return &p, nil
}
