package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/betascope/internal/scheduler"
	"github.com/wonny/betascope/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the portfolio report on a cron schedule",
	Long: `Analyzes the saved portfolio on a schedule and logs the report.
The last report is cached in Redis when it is enabled.

The schedule is a 6-field cron expression with seconds (REPORT_CRON,
default "0 30 16 * * 1-5": weekdays at 16:30).

Example:
  go run ./cmd/betascope schedule
  go run ./cmd/betascope schedule --once
  go run ./cmd/betascope schedule --cron "@every 1h"`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var (
	scheduleOnce bool
	scheduleCron string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "run the report once and exit")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron schedule (default: REPORT_CRON)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spec := a.cfg.Scheduler.ReportCron
	if scheduleCron != "" {
		spec = scheduleCron
	}
	if err := scheduler.ValidateSchedule(spec); err != nil {
		return err
	}

	job := jobs.NewReportJob(a.store, a.analyzer, a.cache, spec, a.policy, a.log)
	sched := scheduler.New(a.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	if scheduleOnce {
		// interactive run: fail fast instead of waiting out the retry delay
		sched.WithRetry(0, 0)
		result, err := sched.RunNow(ctx, job.Name())
		if err != nil {
			return err
		}
		if result.Skipped {
			PrintInfo(fmt.Sprintf("Report skipped: %s", result.Error))
			return nil
		}
		if !result.Success {
			return fmt.Errorf("report failed after %d attempt(s): %s", result.Attempts, result.Error)
		}
		PrintReport(job.Last())
		return nil
	}

	sched.Start()
	next, _ := sched.NextRun(job.Name())

	PrintSuccess("Scheduler started")
	PrintKeyValue("Job", job.Name(), labelWidth)
	PrintKeyValue("Schedule", spec, labelWidth)
	PrintKeyValue("Next Run", next.Format("2006-01-02 15:04:05 MST"), labelWidth)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	a.log.Info("Shutting down scheduler...")
	sched.Stop()

	st := sched.Stats()[job.Name()]
	PrintKeyValue("Runs", fmt.Sprintf("%d (%d failed)", st.TotalRuns, st.FailureCount), labelWidth)
	return nil
}
