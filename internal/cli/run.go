package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucaskeller/crossfeed/internal/config"
	"github.com/lucaskeller/crossfeed/internal/db"
	"github.com/lucaskeller/crossfeed/internal/orchestrator"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/stage"
)

var runQuery string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a workflow",
	Long: `Run executes the configured workflow end to end: stages are scheduled
in dependency order, independent stages run concurrently, and the final
state is persisted under ~/.crossfeed/runs/.

The command exits non-zero when the run fails; a degraded run (optional
stage failed or ambiguous entities dropped) still exits zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWorkflowConfig()
		if err != nil {
			return err
		}
		if problems := config.Validate(cfg); len(problems) > 0 {
			for _, p := range problems {
				fmt.Printf("  %s: %s\n", p.Field, p.Message)
			}
			return fmt.Errorf("%d validation problem(s)", len(problems))
		}

		wf, impls, err := buildWorkflow(cfg)
		if err != nil {
			return err
		}

		store, err := pipeline.DefaultStore()
		if err != nil {
			return err
		}
		dbPath, err := db.DefaultDBPath()
		if err != nil {
			return err
		}
		trace, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening trace db: %w", err)
		}
		defer trace.Close()
		if err := trace.Migrate(); err != nil {
			return err
		}

		orch := orchestrator.New(stage.NewExecutor(log), store, trace, log)
		state, err := orch.Run(cmd.Context(), wf, impls, runQuery)
		if err != nil {
			return err
		}

		printRun(state)
		if state.Status == pipeline.StatusFailed {
			return fmt.Errorf("run %s failed", state.RunID)
		}
		return nil
	},
}

func printRun(st *pipeline.State) {
	fmt.Printf("run %s: %s\n", st.RunID, st.Status)
	for _, tr := range st.History {
		line := fmt.Sprintf("  %-20s %-10s attempts=%d  %dms", tr.Stage, tr.Outcome, tr.Attempts, tr.DurationMs)
		if tr.Error != "" {
			line += "  " + tr.Error
		}
		fmt.Println(line)
	}
	if len(st.Entities) > 0 {
		fmt.Printf("entities: %d\n", len(st.Entities))
	}
	for id, out := range st.Outputs {
		if s, ok := out.(string); ok && s != "published" {
			fmt.Printf("\n[%s]\n%s\n", id, s)
		}
	}
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "workflow", "w", "", "path to workflow file (default ./workflow.yaml)")
	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "query text handed to fetch stages")
}
