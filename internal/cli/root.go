package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucaskeller/crossfeed/internal/logging"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	verbose bool
	log     *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "crossfeed",
	Short: "crossfeed — cross-source data workflows with entity resolution",
	Long: `crossfeed runs multi-stage data workflows: fetch records from several
external providers in parallel, reconcile records that describe the same
real-world entity, and publish the analyzed result.

Workflows are defined in YAML (see workflow.yaml). Run state is stored
under ~/.crossfeed/ (JSON per run, SQLite for stage traces).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		l, err := logging.New(level)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(configCmd)
}
