package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/recommend"
)

// ReviewChecklist is the fixed human review checklist appended to every
// migration pull request.
var ReviewChecklist = []string{
	"Diff reviewed file by file, high-risk files first",
	"Test suite passes locally on the backup branch",
	"No secret, credential, or CI configuration files were touched",
	"Observations and ambiguities below have been read",
	"Rollback point (anchor commit) verified before merging",
}

// BuildPRTitle generates the pull request title for a migration.
func BuildPRTitle(report *Report) string {
	return fmt.Sprintf("chore(deps): %s %s (techscout migration)",
		actionVerb(report.Trace.Action), report.Trace.Subject)
}

// BuildPRBody generates the pull request body: summary, diff table,
// observations, effort comparison, and the review checklist.
func BuildPRBody(report *Report) string {
	var b strings.Builder

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "Automated migration for recommendation `%s`: %s `%s` (priority %s, confidence %.2f).\n\n",
		report.Trace.RecommendationID, actionVerb(report.Trace.Action), report.Trace.Subject,
		report.Trace.Priority, report.Trace.Confidence)
	fmt.Fprintf(&b, "This PR was opened by the TechScout migration agent for job `%s`. It will never be merged automatically; merge requires human approval.\n\n", report.JobID)

	b.WriteString("## Changes\n\n")
	fmt.Fprintf(&b, "%d files changed, %d insertions(+), %d deletions(-)\n\n",
		report.Diff.FilesChanged, report.Diff.Insertions, report.Diff.Deletions)
	if len(report.Files) > 0 {
		b.WriteString("| File | Change | Risk |\n|------|--------|------|\n")
		for _, f := range report.Files {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", f.Path, f.Change, f.Risk)
		}
		b.WriteString("\n")
	}

	if len(report.Observations) > 0 {
		b.WriteString("## Observations\n\n")
		for _, obs := range report.Observations {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", obs.Kind, obs.Tag, obs.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Effort\n\n")
	if report.Effort.Applicable {
		fmt.Fprintf(&b, "Estimated %.1f days; agent run took %s plus ~%.1f days review. Speedup factor: %.1fx.\n\n",
			report.Effort.EstimatedDays, report.Effort.ActualDuration.Round(time.Second),
			report.Effort.HumanReviewDays, report.Effort.SpeedupFactor)
	} else {
		fmt.Fprintf(&b, "Agent run took %s plus ~%.1f days review. No usable upstream estimate; speedup not applicable.\n\n",
			report.Effort.ActualDuration.Round(time.Second), report.Effort.HumanReviewDays)
	}

	b.WriteString("## Review checklist\n\n")
	for _, item := range ReviewChecklist {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}

	return b.String()
}

// BuildPRLabels returns the label set for a migration PR.
func BuildPRLabels(report *Report) []string {
	labels := []string{"techscout", "automated-migration"}
	for _, f := range report.Files {
		if f.Risk == plan.RiskHigh {
			labels = append(labels, "high-risk")
			break
		}
	}
	return labels
}

// actionVerb renders a recommendation action as a verb phrase.
func actionVerb(action recommend.Action) string {
	switch action {
	case recommend.ActionAdopt:
		return "adopt"
	case recommend.ActionReplace:
		return "replace with"
	case recommend.ActionUpgrade:
		return "upgrade"
	case recommend.ActionRemove:
		return "remove"
	default:
		return "migrate"
	}
}
