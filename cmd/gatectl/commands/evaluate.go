package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratewave/featuregate/internal/cli"
	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/providers"
	"github.com/ratewave/featuregate/internal/rollout"
	"github.com/ratewave/featuregate/internal/source"
	"github.com/ratewave/featuregate/internal/store"
)

var (
	evalPlatform      string
	evalBuild         string
	evalVersion       string
	evalBrand         string
	evalModel         string
	evalLocale        string
	evalInstalledAt   string
	evalDeviceID      string
	evalSalt          string
	evalBucket        int
	evalUserID        string
	evalEmail         string
	evalProviders     []string
	evalRegisteredAt  string
	evalPushToken     string
	evalNotifications bool
	evalPlan          string
	evalFirstTime     bool
	evalDefault       bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <feature>",
	Short: "Dry-run a feature decision against a config document",
	Long: `Evaluate one feature for a synthetic client context and print the
full decision (outcome, reason, matched rule, denying field).

The rollout bucket comes from --bucket when set, otherwise it is derived
from --device-id and --salt the way a stateless server would.

Examples:
  gatectl evaluate new_dashboard --config flags.json --platform android --app-version 2.1.0
  gatectl evaluate gradual_rollout --config flags.json --platform ios --device-id dev-1 --salt prod
  gatectl evaluate premium_tools --config flags.json --platform android --user-id u1 --plan premium`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := source.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config document: %w", err)
		}

		ec, err := buildEvalContext()
		if err != nil {
			return err
		}

		eng := engine.New(nil)
		decision := eng.Decide(cmd.Context(), doc, args[0], evalDefault, ec)

		if quiet {
			if !decision.Enabled {
				return fmt.Errorf("feature %q is off", args[0])
			}
			return nil
		}

		outFormat, err := cli.ParseFormat(format)
		if err != nil {
			return err
		}
		return cli.PrintDecision(decision, outFormat)
	},
}

func buildEvalContext() (*engine.Context, error) {
	installed, err := parseTimeFlag("installed-at", evalInstalledAt)
	if err != nil {
		return nil, err
	}
	registered, err := parseTimeFlag("registered-at", evalRegisteredAt)
	if err != nil {
		return nil, err
	}

	var user *providers.User
	if evalUserID != "" {
		user = &providers.User{
			ID:           evalUserID,
			Email:        evalEmail,
			Providers:    evalProviders,
			RegisteredAt: registered,
		}
	}

	kv := store.NewMemoryStore().Seed(map[string]string{
		store.KeyPlanType: evalPlan,
	})
	if evalFirstTime {
		kv.SeedBool(store.KeyFirstTimeUser, true)
	}

	var buckets rollout.BucketSource
	if evalBucket >= 0 {
		if evalBucket >= rollout.BucketCount {
			return nil, fmt.Errorf("--bucket must be below %d", rollout.BucketCount)
		}
		// Pin the bucket by seeding it as the stored value.
		kv.Seed(map[string]string{store.KeyRolloutID: strconv.Itoa(evalBucket)})
		buckets = rollout.NewSticky(kv, store.KeyRolloutID, nil)
	} else {
		buckets = rollout.NewHashed(evalDeviceID, evalSalt)
	}

	return &engine.Context{
		Device: providers.StaticDevice{
			OS:        evalPlatform,
			Build:     evalBuild,
			AppVer:    evalVersion,
			BrandName: evalBrand,
			ModelName: evalModel,
			Locale:    evalLocale,
			Installed: installed,
		},
		Identity: providers.StaticIdentity{User: user},
		Push:     providers.StaticPush{FCMToken: evalPushToken, Enabled: evalNotifications},
		Store:    kv,
		Buckets:  buckets,
	}, nil
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("--%s must be RFC3339 or YYYY-MM-DD, got %q", name, value)
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalPlatform, "platform", "", "Device platform (android, ios)")
	evaluateCmd.Flags().StringVar(&evalBuild, "build", "", "App build number")
	evaluateCmd.Flags().StringVar(&evalVersion, "app-version", "", "App version (e.g. 2.1.0)")
	evaluateCmd.Flags().StringVar(&evalBrand, "brand", "", "Device brand")
	evaluateCmd.Flags().StringVar(&evalModel, "model", "", "Device model")
	evaluateCmd.Flags().StringVar(&evalLocale, "locale", "", "Device locale tag (e.g. es-VE)")
	evaluateCmd.Flags().StringVar(&evalInstalledAt, "installed-at", "", "First install time (RFC3339 or YYYY-MM-DD)")
	evaluateCmd.Flags().StringVar(&evalDeviceID, "device-id", "", "Device identifier for hash bucketing")
	evaluateCmd.Flags().StringVar(&evalSalt, "salt", "", "Rollout salt for hash bucketing")
	evaluateCmd.Flags().IntVar(&evalBucket, "bucket", -1, "Pin the rollout bucket (0-99)")
	evaluateCmd.Flags().StringVar(&evalUserID, "user-id", "", "Signed-in user ID (empty means signed out)")
	evaluateCmd.Flags().StringVar(&evalEmail, "email", "", "User email")
	evaluateCmd.Flags().StringSliceVar(&evalProviders, "providers", nil, "Auth providers (e.g. google.com,password)")
	evaluateCmd.Flags().StringVar(&evalRegisteredAt, "registered-at", "", "User registration time (RFC3339 or YYYY-MM-DD)")
	evaluateCmd.Flags().StringVar(&evalPushToken, "push-token", "", "Push messaging token")
	evaluateCmd.Flags().BoolVar(&evalNotifications, "notifications", false, "Notifications enabled")
	evaluateCmd.Flags().StringVar(&evalPlan, "plan", "", "Subscription plan type")
	evaluateCmd.Flags().BoolVar(&evalFirstTime, "first-time", false, "First-time user")
	evaluateCmd.Flags().BoolVar(&evalDefault, "default", false, "Default value for unknown features")

	_ = evaluateCmd.MarkFlagRequired("platform")
}
