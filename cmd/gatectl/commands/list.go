package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratewave/featuregate/internal/cli"
	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/source"
)

var listEnabledOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the features in a config document",
	Long: `List all features in a config document.

Examples:
  gatectl list --config flags.json
  gatectl list --config flags.yaml --format json
  gatectl list --config flags.json --enabled-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := source.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config document: %w", err)
		}

		features := doc.Features
		if listEnabledOnly {
			var enabled []schema.Feature
			for _, f := range features {
				if f.Enabled {
					enabled = append(enabled, f)
				}
			}
			features = enabled
		}

		if quiet {
			return nil
		}
		if len(features) == 0 {
			fmt.Println("No features found")
			return nil
		}

		outFormat, err := cli.ParseFormat(format)
		if err != nil {
			return err
		}
		return cli.PrintFeatures(features, outFormat)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only enabled features")
}
