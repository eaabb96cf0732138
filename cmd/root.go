package cmd

import (
	"github.com/trendflow/trendflow/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// verbosityLevel is the command-line flag for setting the log level
	verbosityLevel string
)

var rootCmd = &cobra.Command{
	Use:   "trendflow",
	Short: "An AI-powered trend-to-video pipeline orchestrator",
	Long: `TrendFlow turns trending topics into published short videos through
contract-checked pipelines defined in YAML. Every step declares what it
consumes and produces; the engine validates both sides before and after
each module runs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set the global log level based on the flag
		logLevel := utils.LogLevelFromString(verbosityLevel)
		utils.SetLogLevel(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global flags
	rootCmd.PersistentFlags().StringVarP(&verbosityLevel, "log-level", "l", "normal",
		"Set the logging verbosity level: quiet, normal, verbose, debug")
}
