package safety

// StopReason identifies the non-negotiable condition that halted a
// migration run.
type StopReason string

const (
	// ReasonFilesExceeded indicates the files-modified limit was exceeded.
	ReasonFilesExceeded StopReason = "files_limit_exceeded"
	// ReasonLinesExceeded indicates the lines-changed limit was exceeded.
	ReasonLinesExceeded StopReason = "lines_limit_exceeded"
	// ReasonForbiddenPath indicates a forbidden path was touched.
	ReasonForbiddenPath StopReason = "forbidden_path_access"
	// ReasonForbiddenOperation indicates a forbidden operation was attempted.
	ReasonForbiddenOperation StopReason = "forbidden_operation"
	// ReasonComplexityExceeded indicates the complexity ratio passed its threshold.
	ReasonComplexityExceeded StopReason = "complexity_exceeded"
	// ReasonTestsFailed indicates the test suite failed with RequireTestsPass set.
	ReasonTestsFailed StopReason = "tests_failed"
	// ReasonTimeout indicates the plan-level execution budget ran out.
	ReasonTimeout StopReason = "timeout"
	// ReasonAmbiguityHigh indicates ambiguous output on more than 30% of steps.
	ReasonAmbiguityHigh StopReason = "ambiguity_high"
)

// Stop is the terminal marker for a halted run. It is always paired with
// a partial-commit attempt so the backup branch records whatever work was
// done before the halt.
type Stop struct {
	Reason               StopReason `json:"reason"`
	TriggeredAtStep      int        `json:"triggeredAtStep"`
	PartialWorkCommitted bool       `json:"partialWorkCommitted"`
	RecoverySuggestions  []string   `json:"recoverySuggestions"`
}

// NewStop builds a Stop with the fixed recovery suggestions for reason.
func NewStop(reason StopReason, step int, committed bool) Stop {
	return Stop{
		Reason:               reason,
		TriggeredAtStep:      step,
		PartialWorkCommitted: committed,
		RecoverySuggestions:  RecoverySuggestions(reason),
	}
}

// RecoverySuggestions returns the fixed guidance shown to a human for a
// given stop reason. Every stop requires a human decision to resume,
// amend, or abandon the migration.
func RecoverySuggestions(reason StopReason) []string {
	switch reason {
	case ReasonFilesExceeded:
		return []string{
			"Review the diff on the backup branch to see which files were touched",
			"Split the migration into smaller recommendations",
			"Raise max_files_modified only if the wider scope is genuinely expected",
		}
	case ReasonLinesExceeded:
		return []string{
			"Review the diff on the backup branch for unexpected churn",
			"Split the migration into smaller recommendations",
			"Raise max_lines_changed only if the wider scope is genuinely expected",
		}
	case ReasonForbiddenPath:
		return []string{
			"Inspect which step referenced the forbidden path",
			"Remove the offending path from the plan and re-approve",
			"Never exempt secret or version-control paths from the policy",
		}
	case ReasonForbiddenOperation:
		return []string{
			"Inspect the step command that matched a forbidden operation",
			"Rewrite the step without the destructive operation and re-approve",
		}
	case ReasonComplexityExceeded:
		return []string{
			"The migration is materially harder than the plan estimated",
			"Review partial work on the backup branch before deciding to continue",
			"Consider re-planning with a larger estimate or abandoning the attempt",
		}
	case ReasonTestsFailed:
		return []string{
			"Run the test suite locally against the backup branch",
			"Fix the failures manually or roll back to the anchor commit",
		}
	case ReasonTimeout:
		return []string{
			"Partial work is committed on the backup branch",
			"Resume manually from the last completed step",
			"Raise max_execution_minutes if the remaining steps are known to be slow",
		}
	case ReasonAmbiguityHigh:
		return []string{
			"Review the ambiguity log for warnings and version conflicts",
			"Resolve the ambiguous outcomes manually before resuming",
			"Abandon via rollback if the migration path is unclear",
		}
	default:
		return []string{"Review the backup branch and decide whether to resume, amend, or abandon"}
	}
}
