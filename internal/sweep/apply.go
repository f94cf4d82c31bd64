package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Result captures the outcome of applying one decision.
type Result struct {
	Decision Decision
	Success  bool
	Err      error
	Duration time.Duration
}

// Summary aggregates a sweep's results.
type Summary struct {
	Scheduled int
	Removed   int
	Skipped   int
	Failed    int
	Results   []Result
}

// Execute applies a prepared plan. In dry-run mode no write calls are made
// and every applicable decision counts as a success. Per-repository write
// failures are recorded and the sweep continues.
func (e *Engine) Execute(ctx context.Context, plan *Plan) *Summary {
	summary := &Summary{Results: make([]Result, 0, len(plan.Decisions))}

	for _, decision := range plan.Decisions {
		result := e.apply(ctx, plan, decision)

		switch {
		case result.Err != nil:
			summary.Failed++

			e.logger.Error("sweep action failed",
				slog.String("repo", decision.Repo),
				slog.String("action", string(decision.Action)),
				slog.Any("error", result.Err),
			)
		case decision.Action == ActionSchedule:
			summary.Scheduled++
		case decision.Action == ActionUnschedule:
			summary.Removed++
		default:
			summary.Skipped++
		}

		summary.Results = append(summary.Results, result)
	}

	return summary
}

func (e *Engine) apply(ctx context.Context, plan *Plan, decision Decision) Result {
	start := time.Now()

	result := Result{Decision: decision}

	if decision.Failed() {
		result.Err = decision.Err
		result.Duration = time.Since(start)

		return result
	}

	if decision.Action == ActionSkip || e.opts.DryRun {
		result.Success = true
		result.Duration = time.Since(start)

		return result
	}

	switch decision.Action {
	case ActionSchedule:
		if _, err := e.pipelines.CreateSchedule(ctx, decision.Repo, plan.Pattern, decision.Branch); err != nil {
			result.Err = fmt.Errorf("failed to create schedule: %w", err)
		} else {
			e.logger.Info("schedule created",
				slog.String("repo", decision.Repo),
				slog.String("branch", decision.Branch),
			)
		}
	case ActionUnschedule:
		if err := e.pipelines.DeleteSchedule(ctx, decision.Repo, decision.ScheduleUUID); err != nil {
			result.Err = fmt.Errorf("failed to delete schedule: %w", err)
		} else {
			e.logger.Info("schedule removed",
				slog.String("repo", decision.Repo),
				slog.String("branch", decision.Branch),
			)
		}
	}

	result.Success = result.Err == nil
	result.Duration = time.Since(start)

	return result
}

// PrintPlan writes a human-readable dry-run report to stdout.
func PrintPlan(plan *Plan) {
	_, _ = fmt.Fprintf(os.Stdout, "\nDry run: %d repositories inspected (window %s)\n\n",
		len(plan.Decisions), plan.Window)

	for _, decision := range plan.Decisions {
		switch {
		case decision.Failed():
			_, _ = fmt.Fprintf(os.Stdout, "  ! %-40s inspection failed: %v\n", decision.Repo, decision.Err)
		case decision.Action == ActionSchedule:
			_, _ = fmt.Fprintf(os.Stdout, "  + %-40s would schedule weekly build on %s\n", decision.Repo, decision.Branch)
		case decision.Action == ActionUnschedule:
			_, _ = fmt.Fprintf(os.Stdout, "  - %-40s would remove schedule (%s)\n", decision.Repo, decision.Reason)
		default:
			_, _ = fmt.Fprintf(os.Stdout, "    %-40s skip: %s\n", decision.Repo, decision.Reason)
		}
	}

	_, _ = fmt.Fprintln(os.Stdout)
}

// PrintSummary writes the sweep outcome to stdout.
func PrintSummary(summary *Summary) {
	_, _ = fmt.Fprintln(os.Stdout, "\nSweep complete!")
	_, _ = fmt.Fprintln(os.Stdout, "Results:")
	_, _ = fmt.Fprintf(os.Stdout, "  Scheduled: %d\n", summary.Scheduled)
	_, _ = fmt.Fprintf(os.Stdout, "  Removed:   %d\n", summary.Removed)
	_, _ = fmt.Fprintf(os.Stdout, "  Skipped:   %d\n", summary.Skipped)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed:    %d\n\n", summary.Failed)

	if summary.Failed == 0 {
		return
	}

	_, _ = fmt.Fprintln(os.Stdout, "Failed repositories:")

	for _, result := range summary.Results {
		if result.Err == nil {
			continue
		}

		errMsg := result.Err.Error()
		if len(errMsg) > 100 {
			errMsg = errMsg[:100] + "..."
		}

		_, _ = fmt.Fprintf(os.Stdout, "  * %s: %s\n", result.Decision.Repo, errMsg)
	}

	_, _ = fmt.Fprintln(os.Stdout)
}

// LogSummary emits the sweep outcome as structured log records, for JSON
// log consumers.
func LogSummary(summary *Summary, logger *slog.Logger) {
	logger.Info("sweep summary",
		slog.Int("scheduled", summary.Scheduled),
		slog.Int("removed", summary.Removed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
	)

	for _, result := range summary.Results {
		if result.Err == nil {
			continue
		}

		logger.Error("repository failed",
			slog.String("repo", result.Decision.Repo),
			slog.String("action", string(result.Decision.Action)),
			slog.Any("error", result.Err),
		)
	}
}
