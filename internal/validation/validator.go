// Package validation provides lint rules for remote-config documents before
// they are published. Errors block publication; warnings flag config that
// the engine accepts but that usually signals an authoring mistake.
package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ratewave/featuregate/internal/schema"
)

const (
	// MaxNameLength is the maximum length for feature names
	MaxNameLength = 64
	// MinRollout is the minimum rollout percentage
	MinRollout = 0
	// MaxRollout is the maximum rollout percentage
	MaxRollout = 100
)

// namePattern matches alphanumeric characters, underscores, and hyphens
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Result holds the outcome of document validation.
type Result struct {
	Valid    bool
	Errors   map[string]string
	Warnings map[string]string
}

// NewResult creates a passing, empty result.
func NewResult() *Result {
	return &Result{
		Valid:    true,
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid.
func (r *Result) AddError(field, message string) {
	r.Valid = false
	r.Errors[field] = message
}

// AddWarning adds a field warning without failing validation.
func (r *Result) AddWarning(field, message string) {
	r.Warnings[field] = message
}

// ValidateDocument lints a whole config document.
func ValidateDocument(doc *schema.Document) *Result {
	result := NewResult()
	if doc == nil {
		result.AddError("document", "document is nil")
		return result
	}

	seen := make(map[string]bool, len(doc.Features))
	for i, feature := range doc.Features {
		prefix := fmt.Sprintf("features[%d]", i)
		validateFeature(result, prefix, feature)
		if seen[feature.Name] {
			result.AddError(prefix+".name", "duplicate feature name: "+feature.Name)
		}
		seen[feature.Name] = true
	}
	return result
}

func validateFeature(result *Result, prefix string, feature schema.Feature) {
	switch {
	case feature.Name == "":
		result.AddError(prefix+".name", "feature name is required")
	case len(feature.Name) > MaxNameLength:
		result.AddError(prefix+".name", fmt.Sprintf("feature name exceeds %d characters", MaxNameLength))
	case !namePattern.MatchString(feature.Name):
		result.AddError(prefix+".name", "feature name may only contain alphanumerics, underscores and hyphens")
	}

	for i, rule := range feature.Rules {
		validateRule(result, fmt.Sprintf("%s.rules[%d]", prefix, i), rule)
	}
}

func validateRule(result *Result, prefix string, rule schema.Rule) {
	if rule.Action != schema.ActionEnable && rule.Action != schema.ActionDisable {
		result.AddError(prefix+".action", fmt.Sprintf("unknown action %q", rule.Action))
	}
	if rule.Conditions != nil {
		validateCondition(result, prefix+".conditions", *rule.Conditions)
	}
}

func validateCondition(result *Result, prefix string, c schema.Condition) {
	if c.Platform != "" && c.Platform != schema.PlatformAndroid && c.Platform != schema.PlatformIOS {
		result.AddError(prefix+".platform", fmt.Sprintf("unknown platform %q", c.Platform))
	}

	if c.RolloutPercentage != nil {
		if p := *c.RolloutPercentage; p < MinRollout || p > MaxRollout {
			result.AddError(prefix+".rolloutPercentage",
				fmt.Sprintf("rollout must be between %d and %d", MinRollout, MaxRollout))
		}
	}

	if c.MinBuild != nil && c.MaxBuild != nil && *c.MinBuild > *c.MaxBuild {
		result.AddError(prefix+".minBuild", "minBuild exceeds maxBuild, condition can never match")
	}
	if c.MinDaysSinceInstall != nil && *c.MinDaysSinceInstall < 0 {
		result.AddWarning(prefix+".minDaysSinceInstall", "negative day count")
	}
	if c.MaxDaysSinceInstall != nil && *c.MaxDaysSinceInstall < 0 {
		result.AddWarning(prefix+".maxDaysSinceInstall", "negative day count")
	}

	validateDate(result, prefix+".minRegistrationDate", c.MinRegistrationDate)
	validateDate(result, prefix+".maxRegistrationDate", c.MaxRegistrationDate)

	// The comparator accepts loose version strings, but non-semver values in
	// authored config are almost always typos.
	if c.MinVersion != "" {
		if _, err := semver.NewVersion(c.MinVersion); err != nil {
			result.AddWarning(prefix+".minVersion",
				fmt.Sprintf("%q is not canonical semver; comparison treats non-numeric components as zero", c.MinVersion))
		}
	}
}

func validateDate(result *Result, field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		result.AddError(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", value))
	}
}
