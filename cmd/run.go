package cmd

import (
	"fmt"

	"github.com/trendflow/trendflow/internal/config"
	"github.com/trendflow/trendflow/internal/utils"
	"github.com/trendflow/trendflow/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	workflowFilePath string
	seedFilePath     string
	outputFolderPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a trend-to-video pipeline",
	Long: `Execute a pipeline defined in a YAML file. The run always produces an
execution report; step failures are recorded there rather than aborting
the process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewRunConfig(workflowFilePath, seedFilePath, outputFolderPath)
		if err != nil {
			return fmt.Errorf("invalid run configuration: %w", err)
		}

		def, err := workflow.LoadDefinition(cfg.WorkflowPath)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}

		reg, err := workflow.DefaultRegistry()
		if err != nil {
			return fmt.Errorf("failed to build module registry: %w", err)
		}

		engine := workflow.NewEngine(reg)
		report := engine.Run(cmd.Context(), def, cfg.Seed)

		if path := cfg.ReportPath(); path != "" {
			if err := report.Save(path); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			utils.LogInfo("Report written to %s", path)
		}

		if report.Status == workflow.RunFailed {
			return fmt.Errorf("workflow %s failed: %d of %d steps failed",
				report.Workflow, report.FailedSteps(), len(report.Steps))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&workflowFilePath, "workflow", "w", "", "Path to workflow YAML file (required)")
	runCmd.Flags().StringVarP(&seedFilePath, "seed", "s", "", "Path to a YAML file with initial context values")
	runCmd.Flags().StringVarP(&outputFolderPath, "output", "o", "", "Directory to write the execution report to")
	_ = runCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(runCmd)
}
