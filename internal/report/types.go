// Package report turns a finished migration run into its auditable
// outputs: diff and risk analysis, an observation log, an
// effort-accuracy comparison, and the pull request that gates human
// merge approval. The agent never merges; merging is always a human
// action on the PR host.
package report

import (
	"time"

	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/recommend"
)

// ObservationKind classifies an observation in the report.
type ObservationKind string

const (
	// ObservationWarning flags something a reviewer should look at.
	ObservationWarning ObservationKind = "warning"
	// ObservationDiscovery records a measured fact about the run.
	ObservationDiscovery ObservationKind = "discovery"
)

// Observation is a single reviewer-facing note, carrying the epistemic
// tag of its source: measurements are facts, pattern matches are
// inferences.
type Observation struct {
	Kind        ObservationKind `json:"kind"`
	Description string          `json:"description"`
	Tag         string          `json:"tag"`
}

// FileRisk classifies a single changed file for review.
type FileRisk struct {
	Path   string            `json:"path"`
	Change gitops.ChangeType `json:"change"`
	Risk   plan.RiskLevel    `json:"risk"`
}

// EffortComparison compares the recommendation's effort estimate with
// what the migration actually took, including a fixed human-review
// addend.
type EffortComparison struct {
	EstimatedDays   float64       `json:"estimatedDays"`
	ActualDuration  time.Duration `json:"actualDuration"`
	HumanReviewDays float64       `json:"humanReviewDays"`
	TotalDays       float64       `json:"totalDays"`
	SpeedupFactor   float64       `json:"speedupFactor"` // 0 when not applicable
	Applicable      bool          `json:"applicable"`
}

// TraceInfo links the report back to the recommendation's provenance.
type TraceInfo struct {
	RecommendationID string            `json:"recommendationId"`
	Subject          string            `json:"subject"`
	Action           recommend.Action  `json:"action"`
	Priority         string            `json:"priority"`
	Confidence       float64           `json:"confidence"`
	Verdict          recommend.Verdict `json:"verdict"`
}

// Report is the complete migration report handed to human reviewers.
type Report struct {
	JobID        string           `json:"jobId"`
	Diff         gitops.DiffStat  `json:"diff"`
	Files        []FileRisk       `json:"files"`
	Observations []Observation    `json:"observations"`
	Effort       EffortComparison `json:"effort"`
	Trace        TraceInfo        `json:"trace"`
}

// PullRequest is the PR-host collaborator's record of a created pull
// request. Status transitions (merge, close) happen on the host and are
// only ever observed by the agent.
type PullRequest struct {
	URL       string   `json:"url"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Head      string   `json:"head"`
	Base      string   `json:"base"`
	Status    string   `json:"status"`
	Labels    []string `json:"labels,omitempty"`
	Checklist []string `json:"checklist"`
}
