package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ambradan/techscout/internal/agent"
	"github.com/ambradan/techscout/internal/config"
	"github.com/ambradan/techscout/internal/executor"
	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/tui"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Plan, review, and run dependency migrations",
}

var migratePlanCmd = &cobra.Command{
	Use:   "plan <recommendation.json>",
	Short: "Generate a migration plan from a recommendation",
	Long: `Plan reads an approved recommendation file, expands it into concrete
migration steps with per-step risk and safety validation, and stores the
pending plan under a new job directory. The plan must be approved with
'techscout migrate review' before it can run.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigratePlan,
}

var migrateReviewCmd = &cobra.Command{
	Use:   "review <job-id>",
	Short: "Review a pending migration plan",
	Long: `Review opens the interactive plan review screen for a pending job.
The reviewer can approve the plan, reject it, or request changes; the
decision is recorded with the plan and gates execution.

With --approve, --reject, or --request-changes the decision is recorded
directly without opening the interactive screen.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrateReview,
}

var migrateRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Execute an approved migration plan",
	Long: `Run executes an approved plan under supervision: preflight checks,
backup branch creation, step-by-step execution within safety limits, a
final verification, and a review pull request. Partial work is always
committed to the backup branch, whatever the outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrateRun,
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback <job-id>",
	Short: "Reset a job's backup branch to its anchor commit",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrateRollback,
}

var migrateCleanupCmd = &cobra.Command{
	Use:   "cleanup <job-id>",
	Short: "Delete a job's backup branch after merge or abandonment",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrateCleanup,
}

var (
	reviewActor   string
	reviewApprove bool
	reviewReject  bool
	reviewChanges bool
	reviewReason  string
	runSkipTests  bool
	runDry        bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migratePlanCmd)
	migrateCmd.AddCommand(migrateReviewCmd)
	migrateCmd.AddCommand(migrateRunCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
	migrateCmd.AddCommand(migrateCleanupCmd)

	migrateReviewCmd.Flags().StringVar(&reviewActor, "actor", "", "Reviewer identity recorded with the decision (default: $USER)")
	migrateReviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "Approve the plan without the interactive screen")
	migrateReviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "Reject the plan without the interactive screen")
	migrateReviewCmd.Flags().BoolVar(&reviewChanges, "request-changes", false, "Request changes without the interactive screen")
	migrateReviewCmd.Flags().StringVar(&reviewReason, "reason", "", "Reason recorded with --reject or --request-changes")
	migrateReviewCmd.MarkFlagsMutuallyExclusive("approve", "reject", "request-changes")
	migrateRunCmd.Flags().BoolVar(&runSkipTests, "skip-tests", false, "Skip the preflight test-suite check")
	migrateRunCmd.Flags().BoolVar(&runDry, "dry-run", false, "Run the preflight checks only, without touching the repository")
}

func newAgent() (*agent.Agent, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return agent.New(cfg, cwd), nil
}

func runMigratePlan(cmd *cobra.Command, args []string) error {
	a, err := newAgent()
	if err != nil {
		return err
	}

	jobID, p, err := a.Plan(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Job %s: plan %s with %d steps (~%d files, ~%d lines)\n",
		jobID, p.ID, len(p.Steps), p.EstimatedFiles, p.EstimatedLines)
	if !p.WithinSafetyLimits {
		fmt.Printf("Plan violates safety limits and cannot be approved as-is:\n")
		for _, v := range p.Violations {
			fmt.Printf("  - %s\n", v.Message)
		}
	}
	fmt.Printf("Review with: techscout migrate review %s\n", jobID)
	return nil
}

func runMigrateReview(cmd *cobra.Command, args []string) error {
	a, err := newAgent()
	if err != nil {
		return err
	}

	jobID := args[0]
	_, p, err := a.LoadJob(jobID)
	if err != nil {
		return err
	}

	actor := reviewActor
	if actor == "" {
		actor = os.Getenv("USER")
	}
	if actor == "" {
		return fmt.Errorf("reviewer identity required: set --actor or $USER")
	}

	if reviewApprove || reviewReject || reviewChanges {
		switch {
		case reviewApprove:
			err = p.Approve(actor)
		case reviewReject:
			err = p.Reject(actor, reviewReason)
		case reviewChanges:
			err = p.RequestChanges(actor, reviewReason)
		}
		if err != nil {
			return err
		}
	} else {
		decided, err := tui.RunReview(p, actor)
		if err != nil {
			return err
		}
		if !decided {
			fmt.Println("No decision recorded.")
			return nil
		}
	}

	if err := a.SavePlan(jobID, p); err != nil {
		return err
	}

	switch p.Status {
	case plan.StatusApproved:
		fmt.Printf("Plan approved. Run with: techscout migrate run %s\n", jobID)
	case plan.StatusRejected:
		fmt.Println("Plan rejected.")
	case plan.StatusChangesRequested:
		fmt.Println("Changes requested. Regenerate with: techscout migrate plan")
	}
	return nil
}

func runMigrateRun(cmd *cobra.Command, args []string) error {
	a, err := newAgent()
	if err != nil {
		return err
	}

	jobID := args[0]
	if runDry {
		result, err := a.Preflight(cmd.Context(), jobID, runSkipTests)
		if err != nil {
			return err
		}
		printPreflight(&agent.RunOutput{Preflight: result})
		if !result.AllPassed {
			return fmt.Errorf("preflight checks failed")
		}
		fmt.Println("Preflight passed (dry run, nothing executed)")
		return nil
	}

	out, runErr := a.Run(cmd.Context(), jobID, runSkipTests)

	if out != nil {
		printPreflight(out)
		printResult(out)
	}
	if runErr != nil {
		return runErr
	}

	if out.PR != nil {
		fmt.Printf("Pull request: %s\n", out.PR.URL)
	} else if out.Result != nil && out.Result.Outcome == executor.OutcomeCompleted {
		fmt.Printf("Completed on branch %s (no pull request configured)\n", out.Backup.BranchName)
	}
	return nil
}

func printPreflight(out *agent.RunOutput) {
	if len(out.Preflight.Checks) == 0 {
		return
	}
	fmt.Println("Preflight:")
	for _, c := range out.Preflight.Checks {
		line := fmt.Sprintf("  %-22s %s", c.Name, c.Status)
		if c.Detail != "" {
			line += " (" + c.Detail + ")"
		}
		fmt.Println(line)
	}
}

func printResult(out *agent.RunOutput) {
	if out.Result == nil {
		return
	}

	fmt.Printf("Outcome: %s (%d/%d steps, %s)\n",
		out.Result.Outcome, out.Result.CompletedSteps(), len(out.Result.Steps),
		out.Result.Duration.Round(time.Millisecond))

	if out.Result.Stop != nil {
		fmt.Printf("Stopped: %s at step %d\n", out.Result.Stop.Reason, out.Result.Stop.TriggeredAtStep)
		for _, s := range out.Result.Stop.RecoverySuggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	if out.Backup != nil {
		fmt.Printf("Backup branch: %s (anchor %s)\n", out.Backup.BranchName, shortCommit(out.Backup.AnchorCommit))
	}
}

func runMigrateRollback(cmd *cobra.Command, args []string) error {
	a, err := newAgent()
	if err != nil {
		return err
	}

	info, err := a.Rollback(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Rolled back %s to anchor %s\n", info.BranchName, shortCommit(info.AnchorCommit))
	return nil
}

func runMigrateCleanup(cmd *cobra.Command, args []string) error {
	a, err := newAgent()
	if err != nil {
		return err
	}

	info, err := a.Cleanup(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted backup branch %s\n", info.BranchName)
	return nil
}

func shortCommit(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
