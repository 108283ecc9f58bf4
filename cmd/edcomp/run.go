package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/store/sqlite"
)

var (
	runStart string
	runEnd   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute compensation for a date range",
	Long: `Loads shifts, billing, and the stored schedule for the range, runs the
validator and the compensation pipeline, persists the run, and prints
the report. With no flags the previous calendar month is processed.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start", "", "range start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "range end (YYYY-MM-DD, inclusive)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	start, end, err := resolveRange(runStart, runEnd)
	if err != nil {
		return err
	}
	logger.Info("starting compensation run",
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
	)

	cfg, calc, validator, err := loadEngines()
	if err != nil {
		return err
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	windowEnd := end.AddDate(0, 0, 1).Add(-time.Second)

	shifts, err := store.ShiftsInRange(ctx, start, windowEnd)
	if err != nil {
		return fmt.Errorf("loading shifts: %w", err)
	}
	billing, err := store.BillingInRange(ctx, start, windowEnd)
	if err != nil {
		return fmt.Errorf("loading billing: %w", err)
	}
	scheduled, err := store.ScheduledInRange(ctx, start, windowEnd)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	logger.Info("inputs loaded",
		zap.Int("shifts", len(shifts)),
		zap.Int("billing_records", len(billing)),
		zap.Int("scheduled_shifts", len(scheduled)),
	)

	issues := validator.ValidateAll(shifts, scheduled)
	if len(issues) > 0 {
		logger.Warn("validation issues found", zap.Int("count", len(issues)))
		for _, issue := range issues {
			logger.Debug("validation issue",
				zap.String("shift_id", string(issue.ShiftID)),
				zap.String("type", string(issue.Type)),
				zap.String("description", issue.Description),
			)
		}
	}

	result, err := calc.Run(shifts, billing)
	if err != nil {
		return fmt.Errorf("compensation run: %w", err)
	}
	report, err := calc.Report(result, start, windowEnd)
	if err != nil {
		return fmt.Errorf("compensation report: %w", err)
	}

	runID := uuid.NewString()
	if err := store.SaveRun(ctx, sqlite.RunRecord{
		ID:          runID,
		PeriodStart: start,
		PeriodEnd:   windowEnd,
		Report:      report,
		Issues:      issues,
	}); err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	logger.Info("run persisted", zap.String("run_id", runID), zap.Int("physicians", len(report)))

	printReport(report)
	return nil
}

func printReport(report []comp.ReportRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PHYSICIAN\tTOTAL PAY\tPROD BONUS\tPERF BONUS\tTOTAL\tHOURS\tWRVU\tWRVU/HR")
	for _, r := range report {
		avg := "n/a"
		if r.AvgDefined {
			avg = r.AvgWRVUsPerHour.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.PhysicianID,
			r.TotalPay.StringFixed(2), r.ProductivityBonus.StringFixed(2),
			r.PerformanceBonus.StringFixed(2), r.TotalCompensation.StringFixed(2),
			r.ShiftHours.StringFixed(1), r.WRVU.StringFixed(2), avg)
	}
	w.Flush()
}

// resolveRange defaults to the previous calendar month when no flags are
// given.
func resolveRange(startFlag, endFlag string) (time.Time, time.Time, error) {
	if startFlag == "" && endFlag == "" {
		now := time.Now().UTC()
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfThisMonth.AddDate(0, -1, 0)
		end := firstOfThisMonth.AddDate(0, 0, -1)
		return start, end, nil
	}
	if startFlag == "" || endFlag == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start and --end must be given together")
	}
	start, err := time.ParseInLocation("2006-01-02", startFlag, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", endFlag, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end is before --start")
	}
	return start, end, nil
}
