package cmd

import (
	"fmt"
	"time"

	"github.com/inovacc/buildsweep/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past sweep runs from the local history store",
	Long: `Show past sweep runs from the local history store.

Without flags the most recent runs are listed. Use --run to show the
per-repository decisions of a single run.

Examples:
  buildsweep history
  buildsweep history --limit 20
  buildsweep history --run 3`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetInt64("run")

	db := store.GetDB()

	if runID > 0 {
		return printRunDecisions(db, runID)
	}

	runs, err := db.RecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No sweep runs recorded yet.")

		return nil
	}

	fmt.Printf("%-5s %-20s %-16s %-8s %10s %8s %8s %7s\n",
		"ID", "STARTED", "WORKSPACE", "WINDOW", "SCHEDULED", "REMOVED", "SKIPPED", "FAILED")

	for _, run := range runs {
		fmt.Printf("%-5d %-20s %-16s %-8s %10d %8d %8d %7d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Workspace,
			formatWindow(run.Window),
			run.Scheduled,
			run.Removed,
			run.Skipped,
			run.Failed,
		)
	}

	return nil
}

func printRunDecisions(db store.Store, runID int64) error {
	decisions, err := db.DecisionsForRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load decisions: %w", err)
	}

	if len(decisions) == 0 {
		fmt.Printf("No decisions recorded for run %d.\n", runID)

		return nil
	}

	fmt.Printf("Decisions for run %d:\n\n", runID)

	for _, d := range decisions {
		status := "ok"
		if !d.Success {
			status = "FAILED"
		}

		line := fmt.Sprintf("  %-40s %-10s %-6s", d.Repo, d.Action, status)

		if d.Reason != "" {
			line += " " + d.Reason
		}

		if d.Error != "" {
			line += " (" + d.Error + ")"
		}

		fmt.Println(line)
	}

	return nil
}

// formatWindow renders a window duration compactly, using days for
// multiples of 24 hours.
func formatWindow(window time.Duration) string {
	if window >= 24*time.Hour && window%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", window/(24*time.Hour))
	}

	return window.String()
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 10, "Maximum number of runs to list")
	historyCmd.Flags().Int64("run", 0, "Show the decisions of a single run")
}
