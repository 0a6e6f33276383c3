package report

import (
	"fmt"
	"regexp"

	"github.com/ambradan/techscout/internal/backup"
	"github.com/ambradan/techscout/internal/executor"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/logging"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/recommend"
)

// humanReviewDays is the fixed review-time addend folded into every
// effort comparison.
const humanReviewDays = 0.5

// complexityWarnRatio is the complexity ratio above which the report
// carries a warning observation, below the hard safety threshold.
const complexityWarnRatio = 1.2

// sensitivePath flags configuration and secret material; any changed
// file matching it is forced to high risk regardless of change type.
var sensitivePath = regexp.MustCompile(`(?i)config|secret|credential|\.env`)

// Reporter builds migration reports from execution results.
type Reporter struct {
	backups *backup.Manager
	logger  *logging.Logger
}

// NewReporter creates a reporter reading diffs through the given backup
// manager.
func NewReporter(backups *backup.Manager, logger *logging.Logger) *Reporter {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Reporter{backups: backups, logger: logger}
}

// GenerateReport computes the full migration report for a finished run.
func (r *Reporter) GenerateReport(jobID string, rec *recommend.Recommendation, p *plan.Plan, result *executor.Result, info *backup.Info) (*Report, error) {
	diff, err := r.backups.GetBackupDiff(info)
	if err != nil {
		return nil, err
	}
	changes, err := r.backups.GetBackupChanges(info)
	if err != nil {
		return nil, err
	}

	report := &Report{
		JobID:        jobID,
		Diff:         diff,
		Files:        classifyFiles(changes),
		Observations: buildObservations(p, result, diff),
		Effort:       compareEffort(rec, result),
		Trace: TraceInfo{
			RecommendationID: rec.ID,
			Subject:          rec.Subject,
			Action:           rec.Action,
			Priority:         rec.Priority,
			Confidence:       rec.Confidence,
			Verdict:          rec.Verdict,
		},
	}

	r.logger.Info("report generated",
		"files", len(report.Files),
		"observations", len(report.Observations),
		"lines_changed", diff.TotalLines())
	return report, nil
}

// classifyFiles assigns a review risk to every changed file: additions
// are low, modifications and renames medium, deletions high. Paths that
// look like configuration or secret material are always high.
func classifyFiles(changes []gitops.FileChange) []FileRisk {
	files := make([]FileRisk, 0, len(changes))
	for _, change := range changes {
		risk := plan.RiskLow
		switch change.Status {
		case gitops.ChangeModified, gitops.ChangeRenamed:
			risk = plan.RiskMedium
		case gitops.ChangeDeleted:
			risk = plan.RiskHigh
		}
		if sensitivePath.MatchString(change.Path) {
			risk = plan.RiskHigh
		}
		files = append(files, FileRisk{
			Path:   change.Path,
			Change: change.Status,
			Risk:   risk,
		})
	}
	return files
}

// buildObservations assembles the reviewer-facing observation list:
// every ambiguity becomes a warning with its original epistemic tag, a
// files-changed overrun becomes a fact-tagged discovery, and an elevated
// complexity ratio becomes an inference-tagged warning.
func buildObservations(p *plan.Plan, result *executor.Result, diff gitops.DiffStat) []Observation {
	var observations []Observation

	for _, amb := range result.Ambiguities {
		observations = append(observations, Observation{
			Kind:        ObservationWarning,
			Description: amb.Description,
			Tag:         amb.Tag,
		})
	}

	if diff.FilesChanged > p.EstimatedFiles {
		observations = append(observations, Observation{
			Kind: ObservationDiscovery,
			Description: fmt.Sprintf("migration touched %d files against an estimate of %d",
				diff.FilesChanged, p.EstimatedFiles),
			Tag: "fact",
		})
	}

	if result.FinalCheck != nil && result.FinalCheck.ComplexityRatio > complexityWarnRatio {
		observations = append(observations, Observation{
			Kind: ObservationWarning,
			Description: fmt.Sprintf("complexity ratio %.2f suggests the migration was harder than planned",
				result.FinalCheck.ComplexityRatio),
			Tag: "inference",
		})
	}

	return observations
}

// compareEffort compares the recommendation's estimate with the actual
// run time plus the fixed human review addend. A missing or unparseable
// estimate makes the speedup not applicable rather than infinite.
func compareEffort(rec *recommend.Recommendation, result *executor.Result) EffortComparison {
	estimated := recommend.ParseEffortDays(rec.EffortEstimate)
	actualDays := result.Duration.Hours() / 24
	total := actualDays + humanReviewDays

	cmp := EffortComparison{
		EstimatedDays:   estimated,
		ActualDuration:  result.Duration,
		HumanReviewDays: humanReviewDays,
		TotalDays:       total,
	}
	if estimated > 0 && total > 0 {
		cmp.Applicable = true
		cmp.SpeedupFactor = estimated / total
	}
	return cmp
}
