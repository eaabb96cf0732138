package cmd

import (
	"fmt"
	"strings"

	"github.com/trendflow/trendflow/internal/utils"
	"github.com/trendflow/trendflow/internal/workflow"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the registered modules and their contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := workflow.DefaultRegistry()
		if err != nil {
			return fmt.Errorf("failed to build module registry: %w", err)
		}

		for _, c := range reg.All() {
			utils.LogInfo("%s", utils.Highlight(c.ID()))
			if len(c.Dependencies) > 0 {
				utils.LogInfo("  requires: %s", strings.Join(c.Dependencies, ", "))
			}
			utils.LogVerbose("  contract hash: %s", c.Hash())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
