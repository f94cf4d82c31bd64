package cmd

import (
	"fmt"
	"time"

	"github.com/inovacc/buildsweep/internal/schedule"
	"github.com/spf13/cobra"
)

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Inspect and manage pipeline schedules on a repository",
}

var schedulesListCmd = &cobra.Command{
	Use:   "list <repo>",
	Short: "List pipeline schedules on a repository",
	Long: `List pipeline schedules on a repository.

For each schedule the cron pattern, target branch, and enabled state are
shown, along with the next run time when the pattern can be resolved.

Examples:
  buildsweep schedules list billing-svc
  buildsweep schedules list billing-svc -w myworkspace`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedulesList,
}

var schedulesDeleteCmd = &cobra.Command{
	Use:   "delete <repo> <uuid>",
	Short: "Delete a pipeline schedule from a repository",
	Long: `Delete a pipeline schedule from a repository.

The UUID is accepted with or without surrounding braces.

Examples:
  buildsweep schedules delete billing-svc 2b1e0b8c-5cd9-4f62-9e1a-3c1d2e4f5a6b`,
	Args: cobra.ExactArgs(2),
	RunE: runSchedulesDelete,
}

func runSchedulesList(cmd *cobra.Command, args []string) error {
	repo := args[0]

	logger := loggerFromFlags(cmd)

	workspace, _ := cmd.Flags().GetString("workspace")

	ctx := cmd.Context()

	bb, err := newBitbucketClient(ctx, workspace, logger)
	if err != nil {
		return err
	}

	schedules, err := bb.ListSchedules(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	if len(schedules) == 0 {
		fmt.Printf("No pipeline schedules on '%s'.\n", repo)

		return nil
	}

	fmt.Printf("Pipeline schedules on '%s':\n\n", repo)

	for _, s := range schedules {
		state := "enabled"
		if !s.Enabled {
			state = "disabled"
		}

		fmt.Printf("  %s\n", s.UUID)
		fmt.Printf("    pattern: %s\n", s.CronPattern)
		fmt.Printf("    branch:  %s\n", s.Target.RefName)
		fmt.Printf("    state:   %s\n", state)

		if next, err := schedule.NextRun(s.CronPattern, time.Now()); err == nil {
			fmt.Printf("    next:    %s\n", next.Format(time.RFC1123))
		}

		fmt.Println()
	}

	return nil
}

func runSchedulesDelete(cmd *cobra.Command, args []string) error {
	repo, scheduleUUID := args[0], args[1]

	logger := loggerFromFlags(cmd)

	workspace, _ := cmd.Flags().GetString("workspace")

	ctx := cmd.Context()

	bb, err := newBitbucketClient(ctx, workspace, logger)
	if err != nil {
		return err
	}

	if err := bb.DeleteSchedule(ctx, repo, scheduleUUID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	fmt.Printf("Deleted schedule %s from '%s'.\n", scheduleUUID, repo)

	return nil
}

func init() {
	rootCmd.AddCommand(schedulesCmd)
	schedulesCmd.AddCommand(schedulesListCmd)
	schedulesCmd.AddCommand(schedulesDeleteCmd)

	schedulesListCmd.Flags().StringP("workspace", "w", "", "Bitbucket workspace (overrides BB_WORKSPACE)")
	schedulesDeleteCmd.Flags().StringP("workspace", "w", "", "Bitbucket workspace (overrides BB_WORKSPACE)")

	addLoggingFlags(schedulesListCmd.Flags())
	addLoggingFlags(schedulesDeleteCmd.Flags())
}
