package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucaskeller/crossfeed/internal/db"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
)

var (
	runsStatus string
	runsEvents bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past workflow runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := pipeline.DefaultStore()
		if err != nil {
			return err
		}
		states, err := store.List(pipeline.Status(runsStatus))
		if err != nil {
			return err
		}
		if len(states) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		for _, st := range states {
			fmt.Printf("%s  %-16s  %-16s  %q\n", st.RunID, st.Status, st.Workflow, st.Query)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's state and stage trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]
		store, err := pipeline.DefaultStore()
		if err != nil {
			return err
		}
		st, err := store.Get(runID)
		if err != nil {
			return err
		}
		printRun(st)
		for _, e := range st.Entities {
			fmt.Printf("  %-10s %.2f  %s\n", e.Status, e.Score, e.CanonicalName)
		}
		if !runsEvents {
			return nil
		}

		trace, err := openTraceDB()
		if err != nil {
			return err
		}
		defer trace.Close()
		events, err := trace.GetRunEvents(runID, 0)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("  %s  %-22s %-12s %s\n", ev.Timestamp, ev.Event, ev.Stage, ev.Detail)
		}
		return nil
	},
}

var runsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the stage trace database",
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, err := openTraceDB()
		if err != nil {
			return err
		}
		defer trace.Close()
		if err := trace.Reset(); err != nil {
			return err
		}
		fmt.Println("trace database reset")
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-stage outcome aggregates across all runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, err := openTraceDB()
		if err != nil {
			return err
		}
		defer trace.Close()
		stats, err := trace.GetStageStats()
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("no stage runs recorded")
			return nil
		}
		fmt.Printf("%-20s %6s %6s %6s %10s %9s\n", "STAGE", "RUNS", "OK", "FATAL", "AVG MS", "ATTEMPTS")
		for _, s := range stats {
			fmt.Printf("%-20s %6d %6d %6d %10.0f %9.1f\n",
				s.Stage, s.Runs, s.OkCount, s.FatalCount, s.AvgDurationMs, s.AvgAttempts)
		}
		return nil
	},
}

func openTraceDB() (*db.DB, error) {
	path, err := db.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace db: %w", err)
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func init() {
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (running, succeeded, failed, partially_failed)")
	runsShowCmd.Flags().BoolVar(&runsEvents, "events", false, "include orchestrator events from the trace db")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsResetCmd)
}
