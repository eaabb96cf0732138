package cmd

import (
	"fmt"
	"strings"

	"github.com/trendflow/trendflow/internal/utils"
	"github.com/trendflow/trendflow/internal/workflow"

	"github.com/spf13/cobra"
)

var validateWorkflowPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a workflow without running it",
	Long: `Check a workflow definition's structure and verify that every step
resolves to a registered module version. No module is executed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := workflow.LoadDefinition(validateWorkflowPath)
		if err != nil {
			return err
		}
		utils.LogSuccess("Structure: OK")

		reg, err := workflow.DefaultRegistry()
		if err != nil {
			return fmt.Errorf("failed to build module registry: %w", err)
		}

		missing := 0
		for _, step := range def.Steps {
			c, _, err := reg.Resolve(step.Module, step.Version)
			if err != nil {
				return fmt.Errorf("step %q: %w", step.Name, err)
			}
			utils.LogVerbose("Step %s resolves to %s", step.Name, c.ID())

			for _, dep := range c.Dependencies {
				if err := checkDependency(dep); err != nil {
					utils.LogWarning("Step %s: %v", step.Name, err)
					missing++
				}
			}
		}
		utils.LogSuccess("Module resolution: OK")

		if missing > 0 {
			utils.LogWarning("Dependency preflight: %d missing (the run may fail)", missing)
		} else {
			utils.LogSuccess("Dependency preflight: OK")
		}

		utils.LogSuccess("Workflow %s is valid (%d steps)", def.Name, len(def.Steps))
		return nil
	},
}

// checkDependency verifies one declared module dependency. Names written in
// upper snake case are environment variables; anything else is a binary
// looked up on PATH.
func checkDependency(dep string) error {
	if dep == strings.ToUpper(dep) {
		return utils.ValidateEnvVar(dep)
	}
	return utils.ValidateRequiredDependency(dep)
}

func init() {
	validateCmd.Flags().StringVarP(&validateWorkflowPath, "workflow", "w", "", "Path to workflow YAML file (required)")
	_ = validateCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(validateCmd)
}
