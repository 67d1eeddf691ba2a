package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratewave/featuregate/internal/rollout"
)

var bucketSalt string

var bucketCmd = &cobra.Command{
	Use:   "bucket <device-id>",
	Short: "Show the hash-derived rollout bucket for a device",
	Long: `Compute the deterministic rollout bucket for a device ID and salt.

Useful for answering "why is this device not in the 20% rollout": a device
is inside rollout P exactly when its bucket is below P.

Examples:
  gatectl bucket device-123 --salt prod-salt
  gatectl bucket device-123 --salt prod-salt --quiet && echo in-rollout`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, err := rollout.NewHashed(args[0], bucketSalt).Bucket(context.Background())
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("device %s: bucket %d of %d\n", args[0], bucket, rollout.BucketCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bucketCmd)

	bucketCmd.Flags().StringVar(&bucketSalt, "salt", "", "Rollout salt shared with the server")
}
