package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratewave/featuregate/internal/cli"
	"github.com/ratewave/featuregate/internal/source"
	"github.com/ratewave/featuregate/internal/validation"
)

var lintStrict bool

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a config document",
	Long: `Validate a config document without publishing it.

Exit status is non-zero when the document has errors, or, with --strict,
when it has warnings.

Examples:
  gatectl lint --config flags.json
  gatectl lint --config flags.yaml --strict --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := source.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config document: %w", err)
		}

		result := validation.ValidateDocument(doc)

		if !quiet {
			outFormat, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			if err := cli.PrintValidation(result, outFormat); err != nil {
				return err
			}
		}

		if !result.Valid {
			return fmt.Errorf("document has %d error(s)", len(result.Errors))
		}
		if lintStrict && len(result.Warnings) > 0 {
			return fmt.Errorf("document has %d warning(s)", len(result.Warnings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as errors")
}
