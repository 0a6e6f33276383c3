package executor

import (
	"time"

	"github.com/ambradan/techscout/internal/safety"
)

// Outcome is the terminal state of a migration run.
type Outcome string

const (
	// OutcomeCompleted means every step ran and the final safety check passed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTimedOut means the plan-level time budget ran out at a step boundary.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeAmbiguityStopped means ambiguous output crossed the 30% bound.
	OutcomeAmbiguityStopped Outcome = "ambiguity_stopped"
	// OutcomeStepFailed means a step failed and execution halted.
	OutcomeStepFailed Outcome = "step_failed"
	// OutcomeSafetyStopped means the final safety check triggered a stop.
	OutcomeSafetyStopped Outcome = "safety_stopped"
	// OutcomeErrored means an unexpected error aborted the run.
	OutcomeErrored Outcome = "errored"
)

// StepStatus is the outcome of a single attempted step.
type StepStatus string

const (
	// StepCompleted means the step ran (or was acknowledged as manual) successfully.
	StepCompleted StepStatus = "completed"
	// StepFailed means the step failed or was blocked by the safety policy.
	StepFailed StepStatus = "failed"
)

// StepExecution records one attempted step. Executions are appended in
// order and never reordered or removed.
type StepExecution struct {
	StepNumber int           `json:"stepNumber"`
	Status     StepStatus    `json:"status"`
	Duration   time.Duration `json:"duration"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	Note       string        `json:"note,omitempty"`
}

// AmbiguityEntry records an execution-time signal of uncertain or risky
// outcome, pattern-matched in step output. The tag describes how certain
// the detection is; pattern matches are inferences, not facts.
type AmbiguityEntry struct {
	StepNumber  int     `json:"stepNumber"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Tag         string  `json:"tag"`
}

// Result is the full record of one migration run.
type Result struct {
	Outcome     Outcome          `json:"outcome"`
	StartedAt   time.Time        `json:"startedAt"`
	EndedAt     time.Time        `json:"endedAt"`
	Duration    time.Duration    `json:"duration"`
	Steps       []StepExecution  `json:"steps"`
	Ambiguities []AmbiguityEntry `json:"ambiguities,omitempty"`
	FinalCheck  *safety.Check    `json:"finalCheck,omitempty"`
	Stop        *safety.Stop     `json:"stop,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// CompletedSteps counts the steps that finished successfully.
func (r *Result) CompletedSteps() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StepCompleted {
			n++
		}
	}
	return n
}
