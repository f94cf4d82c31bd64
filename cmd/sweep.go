package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/inovacc/buildsweep/internal/model"
	"github.com/inovacc/buildsweep/internal/schedule"
	"github.com/inovacc/buildsweep/internal/store"
	"github.com/inovacc/buildsweep/internal/sweep"
	"github.com/spf13/cobra"
)

// testWindow replaces the trailing activity window in test mode so a
// freshly pushed commit flips a repository between states quickly.
const testWindow = 2 * time.Minute

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep the service catalog and manage weekly build schedules",
	Long: `Sweep the service catalog and manage weekly build schedules.

This command will:
  1. Fetch the list of services from the Datadog service catalog
  2. Resolve each service to its Bitbucket repository
  3. Inspect recent commits and pipeline runs per repository
  4. Create a weekly placeholder schedule on dormant repositories
  5. Remove the placeholder schedule from repositories that are active again

Authentication:
  Bitbucket credentials are detected from (in order):
  - BB_ACCESS_TOKEN environment variable
  - BB_USER_ID and BB_APP_PASS environment variables
  - [bitbucket] section of the credentials file

  Datadog credentials come from DD_API_KEY and DD_APP_KEY, or the
  [datadog] section of the credentials file.

Examples:
  # Sweep the whole catalog
  buildsweep sweep

  # Preview without making changes
  buildsweep sweep --dry-run

  # Sweep specific repositories, skipping the catalog
  buildsweep sweep -r billing-svc -r search-svc

  # Never touch repositories matching a glob
  buildsweep sweep -o "legacy-*" -o infra-tools

  # Short activity window for verifying behavior
  buildsweep sweep --test --dry-run

  # JSON log output for scripting
  buildsweep sweep --json --log-level=debug`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	repos, _ := cmd.Flags().GetStringSlice("repositories")
	overrides, _ := cmd.Flags().GetStringSlice("override")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	testMode, _ := cmd.Flags().GetBool("test")
	window, _ := cmd.Flags().GetDuration("window")
	pattern, _ := cmd.Flags().GetString("schedule")
	workspace, _ := cmd.Flags().GetString("workspace")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if testMode {
		window = testWindow
	}

	logger := loggerFromFlags(cmd)

	ctx := cmd.Context()

	bb, err := newBitbucketClient(ctx, workspace, logger)
	if err != nil {
		return err
	}

	var catalog sweep.Catalog

	if len(repos) == 0 {
		dd, err := newDatadogClient(logger)
		if err != nil {
			return err
		}

		catalog = dd
	}

	engine, err := sweep.New(catalog, bb, sweep.Options{
		Repositories: repos,
		Overrides:    overrides,
		Window:       window,
		Pattern:      pattern,
		DryRun:       dryRun,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting sweep",
		slog.String("workspace", bb.Workspace()),
		slog.Duration("window", window),
		slog.Bool("dry_run", dryRun),
	)

	startedAt := time.Now().UTC()

	fmt.Printf("Inspecting repositories in workspace '%s'...\n", bb.Workspace())

	plan, err := engine.Prepare(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep: %w", err)
	}

	if len(plan.Decisions) == 0 {
		logger.Warn("no repositories found to sweep")
		fmt.Println("\nNo repositories found to sweep.")

		return nil
	}

	summary := engine.Execute(ctx, plan)

	if dryRun {
		sweep.PrintPlan(plan)
	} else {
		sweep.PrintSummary(summary)
	}

	if jsonOutput {
		sweep.LogSummary(summary, logger)
	}

	if !noHistory {
		if err := recordRun(bb.Workspace(), plan, summary, startedAt, dryRun); err != nil {
			logger.Warn("failed to record sweep history", slog.Any("error", err))
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d repositories failed to sweep", summary.Failed)
	}

	return nil
}

// recordRun persists the sweep outcome to the local history store.
func recordRun(workspace string, plan *sweep.Plan, summary *sweep.Summary, startedAt time.Time, dryRun bool) error {
	run := &model.Run{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Workspace:  workspace,
		Window:     plan.Window,
		Pattern:    plan.Pattern,
		DryRun:     dryRun,
		Scheduled:  summary.Scheduled,
		Removed:    summary.Removed,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
	}

	decisions := make([]model.DecisionRecord, 0, len(summary.Results))

	for _, result := range summary.Results {
		record := model.DecisionRecord{
			Repo:    result.Decision.Repo,
			Action:  string(result.Decision.Action),
			Reason:  result.Decision.Reason,
			Success: result.Success,
		}

		if result.Err != nil {
			record.Error = result.Err.Error()
		}

		decisions = append(decisions, record)
	}

	return store.GetDB().SaveRun(run, decisions)
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringSliceP("repositories", "r", nil, "Sweep only the listed repository slugs, skipping the catalog")
	sweepCmd.Flags().StringSliceP("override", "o", nil, "Glob patterns of repositories that are never touched")
	sweepCmd.Flags().BoolP("dry-run", "d", false, "Preview decisions without making any changes")
	sweepCmd.Flags().BoolP("test", "t", false, "Use a 2-minute activity window for verification")
	sweepCmd.Flags().Duration("window", sweep.DefaultWindow, "Trailing activity window")
	sweepCmd.Flags().String("schedule", schedule.DefaultPattern, "Cron pattern for created schedules")
	sweepCmd.Flags().StringP("workspace", "w", "", "Bitbucket workspace (overrides BB_WORKSPACE)")
	sweepCmd.Flags().Bool("no-history", false, "Do not record this run in the local history store")

	addLoggingFlags(sweepCmd.Flags())
}
