package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucaskeller/crossfeed/internal/config"
)

var configPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate workflow configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the workflow file and report problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWorkflowConfig()
		if err != nil {
			return err
		}
		problems := config.Validate(cfg)
		if len(problems) == 0 {
			fmt.Printf("workflow %q is valid (%d stages, %d sources)\n",
				cfg.Workflow.Name, len(cfg.Workflow.Stages), len(cfg.Workflow.Sources))
			return nil
		}
		for _, p := range problems {
			fmt.Printf("  %s: %s\n", p.Field, p.Message)
		}
		return fmt.Errorf("%d validation problem(s)", len(problems))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after defaults are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWorkflowConfig()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func loadWorkflowConfig() (*config.WorkflowConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadDefault()
}

func init() {
	configCmd.PersistentFlags().StringVarP(&configPath, "workflow", "w", "", "path to workflow file (default ./workflow.yaml)")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
