package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	format     string
	quiet      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "CLI tool for working with feature gate config documents",
	Long: `Gatectl inspects and dry-runs featuregate remote-config documents.

It reads the same JSON or YAML documents the server publishes, so a config
change can be linted and evaluated locally before it ships.

Examples:
  gatectl list --config flags.json
  gatectl lint --config flags.yaml
  gatectl evaluate new_dashboard --config flags.json --platform android --app-version 2.1.0
  gatectl bucket device-123 --salt prod-salt`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "flags.json", "Path to the config document (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
