package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucaskeller/crossfeed/internal/record"
	"github.com/lucaskeller/crossfeed/internal/resolve"
)

var (
	resolvePrimary    string
	resolveCandidates string
	resolveJSON       bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve two record sets against each other, outside a workflow",
	Long: `Resolve reads records from two JSON files (arrays of records) and runs
entity resolution with the workflow's resolver calibration. Useful for
tuning thresholds against captured provider payloads before committing
them to the workflow file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rcfg := resolve.DefaultConfig()
		if cfg, err := loadWorkflowConfig(); err == nil {
			rcfg, err = buildResolverConfig(cfg.Workflow.Resolver)
			if err != nil {
				return err
			}
		} else if configPath != "" {
			// An explicitly named workflow file must load.
			return err
		}

		primaries, err := readRecords(resolvePrimary)
		if err != nil {
			return err
		}
		candidates, err := readRecords(resolveCandidates)
		if err != nil {
			return err
		}

		entities := resolve.ResolveAll(primaries, candidates, rcfg)
		if resolveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entities)
		}

		for _, e := range entities {
			fmt.Printf("%-10s %.2f  %s\n", e.Status, e.Score, e.CanonicalName)
			for _, c := range e.Candidates {
				fmt.Printf("    candidate %.2f  %s\n", c.Score, c.Record.DisplayName)
			}
		}
		return nil
	},
}

func readRecords(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var recs []record.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}

func init() {
	resolveCmd.Flags().StringVar(&resolvePrimary, "primary", "", "JSON file with primary records")
	resolveCmd.Flags().StringVar(&resolveCandidates, "candidates", "", "JSON file with candidate records")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "emit resolved entities as JSON")
	resolveCmd.Flags().StringVarP(&configPath, "workflow", "w", "", "path to workflow file (default ./workflow.yaml)")
	_ = resolveCmd.MarkFlagRequired("primary")
	_ = resolveCmd.MarkFlagRequired("candidates")
}
